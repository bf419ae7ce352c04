package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/calehh/vote-app/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

var (
	ErrDecodeEvent      = errors.New("decode event fail")
	ErrUnknownProposal  = errors.New("vote for unindexed proposal")
	ErrClientNotStarted = errors.New("rpc client not connected")
)

// ChainIndexer follows committed blocks and stores the vote events they
// emitted.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	interval      time.Duration
	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	return newChainIndexer(logger, db, chainUrl, interval)
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, chainUrl string, interval time.Duration) (*ChainIndexer, error) {
	if err := db.AutoMigrate(&Height{}, &Proposal{}, &Registry{}, &RegistryVoter{}, &Vote{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if interval <= 0 {
		interval = time.Second
	}
	c := &ChainIndexer{
		logger:   logger.With("module", "indexer"),
		Url:      chainUrl,
		Height:   int64(h.Height + 1),
		interval: interval,
		db:       db,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventProposalCreatedType:  c.handleEventProposalCreated,
		types.EventVotersRegisteredType: c.handleEventVotersRegistered,
		types.EventVoteCastType:         c.handleEventVoteCast,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error

func (c *ChainIndexer) handleEvent(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(ctx, db, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventProposalCreated(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventProposalCreated(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	proposal := Proposal{
		Location:     ev.Proposal.String(),
		ProposalId:   ev.Id,
		Owner:        ev.Owner.String(),
		Description:  ev.Description,
		Deposit:      ev.Deposit,
		NewHeight:    uint64(height),
		UpdateHeight: uint64(height),
	}
	return db.Save(&proposal).Error
}

func (c *ChainIndexer) handleEventVotersRegistered(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVotersRegistered(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	registry := Registry{
		Location:   ev.Registry.String(),
		Proposal:   ev.Proposal.String(),
		Proposer:   ev.Proposer.String(),
		ProposalId: ev.ProposalId,
		Height:     uint64(height),
	}
	if err := db.Save(&registry).Error; err != nil {
		return err
	}
	if err := db.Where("registry = ?", registry.Location).Delete(&RegistryVoter{}).Error; err != nil {
		return err
	}
	for i, v := range ev.Voters {
		voter := RegistryVoter{
			Registry: registry.Location,
			Voter:    v.String(),
			Position: i,
		}
		if err := db.Create(&voter).Error; err != nil {
			return err
		}
	}
	return nil
}

func (c *ChainIndexer) handleEventVoteCast(ctx context.Context, db *gorm.DB, event abci.Event, height int64) error {
	ev := types.DecodeEventVoteCast(event)
	if ev == nil {
		return fmt.Errorf("%w: %s", ErrDecodeEvent, event.Type)
	}
	var proposal Proposal
	if err := db.Where("location = ?", ev.Proposal.String()).First(&proposal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownProposal, ev.Proposal)
		}
		return err
	}
	proposal.UpVotes = ev.UpVotes
	proposal.DownVotes = ev.DownVotes
	proposal.TotalVotes = ev.TotalVotes
	proposal.UpdateHeight = uint64(height)
	if err := db.Save(&proposal).Error; err != nil {
		return err
	}
	vote := Vote{}
	err := db.Where("proposal = ? AND voter = ?", proposal.Location, ev.Voter.String()).First(&vote).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	vote = Vote{
		Proposal: proposal.Location,
		Voter:    ev.Voter.String(),
		Vote:     uint8(ev.Vote),
		Height:   uint64(height),
	}
	return db.Create(&vote).Error
}

// handleBlock stores the events of one block and advances the cursor in a
// single sqlite transaction.
func (c *ChainIndexer) handleBlock(ctx context.Context, height int64, results []*abci.ExecTxResult) (err error) {
	db := c.db.Begin()
	if db.Error != nil {
		return db.Error
	}
	defer func() {
		if err != nil {
			db.Rollback()
		}
	}()
	for _, res := range results {
		if res == nil || res.Code != abci.CodeTypeOK {
			continue
		}
		for _, event := range res.Events {
			if err = c.handleEvent(ctx, db, event, height); err != nil {
				c.logger.Error("handle event fail", "height", height, "type", event.Type, "err", err)
				return err
			}
		}
	}
	if err = db.Save(&Height{Id: 1, Height: uint64(height)}).Error; err != nil {
		return err
	}
	if err = db.Commit().Error; err != nil {
		return err
	}
	c.Height = height + 1
	return nil
}

// connect builds the rpc client once; sync drops it after a failure so the
// next tick reconnects.
func (c *ChainIndexer) connect() (err error) {
	if c.cli != nil {
		return nil
	}
	c.cli, err = comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.cli = nil
		c.logger.Error("connect fail", "err", err)
	}
	return
}

// sync indexes every committed block above the cursor.
func (c *ChainIndexer) sync(ctx context.Context) error {
	if c.cli == nil {
		return ErrClientNotStarted
	}
	status, err := c.cli.Status(ctx)
	if err != nil {
		return err
	}
	for status.SyncInfo.LatestBlockHeight >= c.Height {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		height := c.Height
		res, err := c.cli.BlockResults(ctx, &height)
		if err != nil {
			return err
		}
		if err = c.handleBlock(ctx, height, res.TxsResults); err != nil {
			return err
		}
		c.logger.Debug("indexed block", "height", height, "txs", len(res.TxsResults))
	}
	return nil
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.connect(); err != nil {
				continue
			}
			if err := c.sync(ctx); err != nil {
				c.logger.Error("indexer sync fail", "height", c.Height, "err", err)
				c.cli = nil
			}
		}
	}
}

func pageBounds(page int, pageSize int) (offset int, limit int) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 1000 {
		pageSize = 1000
	}
	if page < 0 {
		page = 0
	}
	return page * pageSize, pageSize
}

func (c *ChainIndexer) getProposals(owner string, page int, pageSize int) ([]Proposal, uint64, error) {
	offset, limit := pageBounds(page, pageSize)
	q := c.db.Model(&Proposal{})
	if owner != "" {
		q = q.Where("owner = ?", owner)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	proposals := make([]Proposal, 0)
	err := q.Order("new_height desc").Order("location").Offset(offset).Limit(limit).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalByLocation(location string) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("location = ?", location).First(&proposal).Error
	return proposal, err
}

func (c *ChainIndexer) getVotes(proposal string, voter string, page int, pageSize int) ([]Vote, uint64, error) {
	offset, limit := pageBounds(page, pageSize)
	q := c.db.Model(&Vote{}).Where("proposal = ?", proposal)
	if voter != "" {
		q = q.Where("voter = ?", voter)
	}
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	votes := make([]Vote, 0)
	if err := q.Order("id").Offset(offset).Limit(limit).Find(&votes).Error; err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}

func (c *ChainIndexer) getRegistry(location string) (Registry, error) {
	var registry Registry
	err := c.db.Where("location = ?", location).First(&registry).Error
	return registry, err
}

func (c *ChainIndexer) getRegistriesByProposal(proposal string) ([]Registry, error) {
	registries := make([]Registry, 0)
	err := c.db.Where("proposal = ?", proposal).Order("height").Find(&registries).Error
	return registries, err
}

func (c *ChainIndexer) getRegistryVoters(registry string, page int, pageSize int) ([]string, uint64, error) {
	offset, limit := pageBounds(page, pageSize)
	q := c.db.Model(&RegistryVoter{}).Where("registry = ?", registry)
	var total uint64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []RegistryVoter
	if err := q.Order("position").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	voters := make([]string, len(rows))
	for i := range rows {
		voters[i] = rows[i].Voter
	}
	return voters, total, nil
}

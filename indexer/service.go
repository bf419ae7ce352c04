package indexer

import (
	"errors"
	"net/http"

	"github.com/calehh/vote-app/types"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
)

type Service struct {
	engine     *gin.Engine
	indexer    *ChainIndexer
	listenAddr string
}

func NewService(listenAddr string, indexer *ChainIndexer) *Service {
	r := gin.Default()
	s := &Service{
		engine:     r,
		indexer:    indexer,
		listenAddr: listenAddr,
	}
	s.engine.POST("/getProposals", s.handleGetProposals)
	s.engine.POST("/getVotes", s.handleGetVotes)
	s.engine.POST("/getVoters", s.handleGetVoters)
	return s
}

func (s *Service) Start() error {
	return s.engine.Run(s.listenAddr)
}

func (s *Service) Handler() http.Handler {
	return s.engine
}

// validAddress accepts an empty filter or a base58 address.
func validAddress(addr string) bool {
	if addr == "" {
		return true
	}
	_, err := types.ParseAddress(addr)
	return err == nil
}

func errorStatus(err error) int {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type GetProposalsReq struct {
	Proposal string `json:"proposal"`
	Owner    string `json:"owner"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetProposalsResponse struct {
	Proposals []Proposal `json:"proposals"`
	Total     uint64     `json:"total"`
}

func (s *Service) handleGetProposals(c *gin.Context) {
	var response GetProposalsResponse
	response.Proposals = make([]Proposal, 0)
	var requestData GetProposalsReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validAddress(requestData.Proposal) || !validAddress(requestData.Owner) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}

	if requestData.Proposal != "" {
		proposal, err := s.indexer.getProposalByLocation(requestData.Proposal)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		response.Proposals = append(response.Proposals, proposal)
		response.Total = 1
		c.JSON(http.StatusOK, response)
		return
	}

	proposals, total, err := s.indexer.getProposals(requestData.Owner, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	response.Proposals = proposals
	response.Total = total
	c.JSON(http.StatusOK, response)
}

type GetVotesReq struct {
	Proposal string `json:"proposal"`
	Voter    string `json:"voter"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type GetVotesResponse struct {
	Votes []Vote `json:"votes"`
	Total uint64 `json:"total"`
}

func (s *Service) handleGetVotes(c *gin.Context) {
	var requestData GetVotesReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if requestData.Proposal == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "proposal is required"})
		return
	}
	if !validAddress(requestData.Proposal) || !validAddress(requestData.Voter) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}
	votes, total, err := s.indexer.getVotes(requestData.Proposal, requestData.Voter, requestData.Page, requestData.PageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, GetVotesResponse{Votes: votes, Total: total})
}

type GetVotersReq struct {
	Registry string `json:"registry"`
	Proposal string `json:"proposal"`
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
}

type RegistryInfo struct {
	Registry Registry `json:"registry"`
	Voters   []string `json:"voters"`
	Total    uint64   `json:"total"`
}

type GetVotersResponse struct {
	Registries []RegistryInfo `json:"registries"`
}

func (s *Service) registryInfo(registry Registry, page int, pageSize int) (RegistryInfo, error) {
	voters, total, err := s.indexer.getRegistryVoters(registry.Location, page, pageSize)
	if err != nil {
		return RegistryInfo{}, err
	}
	return RegistryInfo{Registry: registry, Voters: voters, Total: total}, nil
}

func (s *Service) handleGetVoters(c *gin.Context) {
	var response GetVotersResponse
	response.Registries = make([]RegistryInfo, 0)
	var requestData GetVotersReq
	if err := c.ShouldBindJSON(&requestData); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validAddress(requestData.Registry) || !validAddress(requestData.Proposal) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid address"})
		return
	}

	var registries []Registry
	switch {
	case requestData.Registry != "":
		registry, err := s.indexer.getRegistry(requestData.Registry)
		if err != nil {
			c.JSON(errorStatus(err), gin.H{"error": err.Error()})
			return
		}
		registries = append(registries, registry)
	case requestData.Proposal != "":
		var err error
		registries, err = s.indexer.getRegistriesByProposal(requestData.Proposal)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "registry or proposal is required"})
		return
	}

	for _, registry := range registries {
		info, err := s.registryInfo(registry, requestData.Page, requestData.PageSize)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		response.Registries = append(response.Registries, info)
	}
	c.JSON(http.StatusOK, response)
}

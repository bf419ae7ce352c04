package types

import (
	"fmt"
	"strconv"
	"strings"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventProposalCreatedType  = "proposal_created"
	EventVotersRegisteredType = "voters_registered"
	EventVoteCastType         = "vote_cast"
)

type EventProposalCreated struct {
	Proposal    Address `json:"proposal"`
	Owner       Address `json:"owner"`
	Id          uint64  `json:"id"`
	Description string  `json:"description"`
	Deposit     uint64  `json:"deposit"`
}

func EncodeEventProposalCreated(event *EventProposalCreated) abci.Event {
	return abci.Event{
		Type: EventProposalCreatedType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: event.Proposal.String(), Index: true},
			{Key: "owner", Value: event.Owner.String(), Index: true},
			{Key: "id", Value: fmt.Sprintf("%v", event.Id), Index: true},
			{Key: "description", Value: event.Description, Index: false},
			{Key: "deposit", Value: fmt.Sprintf("%v", event.Deposit), Index: false},
		},
	}
}

func DecodeEventProposalCreated(originEvent abci.Event) *EventProposalCreated {
	if originEvent.Type != EventProposalCreatedType {
		return nil
	}
	event := &EventProposalCreated{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.Proposal, err = ParseAddress(v.Value)
		case "owner":
			event.Owner, err = ParseAddress(v.Value)
		case "id":
			event.Id, err = strconv.ParseUint(v.Value, 10, 64)
		case "description":
			event.Description = v.Value
		case "deposit":
			event.Deposit, err = strconv.ParseUint(v.Value, 10, 64)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventVotersRegistered struct {
	Registry   Address   `json:"registry"`
	Proposal   Address   `json:"proposal"`
	Proposer   Address   `json:"proposer"`
	ProposalId uint64    `json:"proposalId"`
	Voters     []Address `json:"voters"`
}

func EncodeEventVotersRegistered(event *EventVotersRegistered) abci.Event {
	voters := make([]string, len(event.Voters))
	for i := range event.Voters {
		voters[i] = event.Voters[i].String()
	}
	return abci.Event{
		Type: EventVotersRegisteredType,
		Attributes: []abci.EventAttribute{
			{Key: "registry", Value: event.Registry.String(), Index: true},
			{Key: "proposal", Value: event.Proposal.String(), Index: true},
			{Key: "proposer", Value: event.Proposer.String(), Index: true},
			{Key: "proposalId", Value: fmt.Sprintf("%v", event.ProposalId), Index: false},
			{Key: "voters", Value: strings.Join(voters, ","), Index: false},
		},
	}
}

func DecodeEventVotersRegistered(originEvent abci.Event) *EventVotersRegistered {
	if originEvent.Type != EventVotersRegisteredType {
		return nil
	}
	event := &EventVotersRegistered{
		Voters: []Address{},
	}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "registry":
			event.Registry, err = ParseAddress(v.Value)
		case "proposal":
			event.Proposal, err = ParseAddress(v.Value)
		case "proposer":
			event.Proposer, err = ParseAddress(v.Value)
		case "proposalId":
			event.ProposalId, err = strconv.ParseUint(v.Value, 10, 64)
		case "voters":
			if v.Value == "" {
				continue
			}
			for _, s := range strings.Split(v.Value, ",") {
				var voter Address
				voter, err = ParseAddress(s)
				if err != nil {
					break
				}
				event.Voters = append(event.Voters, voter)
			}
		}
		if err != nil {
			return nil
		}
	}
	return event
}

type EventVoteCast struct {
	Proposal   Address `json:"proposal"`
	Voter      Address `json:"voter"`
	Vote       Vote    `json:"vote"`
	UpVotes    uint64  `json:"upVotes"`
	DownVotes  uint64  `json:"downVotes"`
	TotalVotes uint64  `json:"totalVotes"`
}

func EncodeEventVoteCast(event *EventVoteCast) abci.Event {
	return abci.Event{
		Type: EventVoteCastType,
		Attributes: []abci.EventAttribute{
			{Key: "proposal", Value: event.Proposal.String(), Index: true},
			{Key: "voter", Value: event.Voter.String(), Index: true},
			{Key: "vote", Value: fmt.Sprintf("%v", uint8(event.Vote)), Index: false},
			{Key: "upVotes", Value: fmt.Sprintf("%v", event.UpVotes), Index: false},
			{Key: "downVotes", Value: fmt.Sprintf("%v", event.DownVotes), Index: false},
			{Key: "totalVotes", Value: fmt.Sprintf("%v", event.TotalVotes), Index: false},
		},
	}
}

func DecodeEventVoteCast(originEvent abci.Event) *EventVoteCast {
	if originEvent.Type != EventVoteCastType {
		return nil
	}
	event := &EventVoteCast{}
	var err error
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal":
			event.Proposal, err = ParseAddress(v.Value)
		case "voter":
			event.Voter, err = ParseAddress(v.Value)
		case "vote":
			var vote uint64
			vote, err = strconv.ParseUint(v.Value, 10, 8)
			event.Vote = Vote(vote)
		case "upVotes":
			event.UpVotes, err = strconv.ParseUint(v.Value, 10, 64)
		case "downVotes":
			event.DownVotes, err = strconv.ParseUint(v.Value, 10, 64)
		case "totalVotes":
			event.TotalVotes, err = strconv.ParseUint(v.Value, 10, 64)
		}
		if err != nil {
			return nil
		}
	}
	return event
}

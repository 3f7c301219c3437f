package service

import (
	"context"

	"gorm.io/gorm"

	"nextearnx/internal/model"
	"nextearnx/internal/repository"
	"nextearnx/internal/verify"
)

// Gate names, in evaluation order.
const (
	GateAlreadyClaimed = "already_claimed"
	GateBan            = "ban"
	GateSpecialUser    = "special_user"
	GateAccessCode     = "access_code"
	GateChannels       = "channels"
	GateReferrals      = "referrals"
)

const (
	GatePass    = "pass"
	GateFail    = "fail"
	GatePending = "pending"
)

var gateOrder = []string{
	GateAlreadyClaimed,
	GateBan,
	GateSpecialUser,
	GateAccessCode,
	GateChannels,
	GateReferrals,
}

// GateVerdict is one gate's outcome. Terminal verdicts end the claim attempt
// for good; non-terminal failures can be retried with new input.
type GateVerdict struct {
	Status   string `json:"status"`
	Terminal bool   `json:"terminal,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

type Eligibility struct {
	Gates    map[string]GateVerdict `json:"gates"`
	CanClaim bool                   `json:"can_claim"`
}

// GateInput carries everything the gate pipeline needs, already loaded, so
// evaluation itself touches no storage.
type GateInput struct {
	AlreadyClaimed    bool
	Banned            bool
	Mobile            string
	SpecialUsers      []string
	AccessCode        *string
	SubmittedCode     string
	RequiredChannels  []string
	ChannelMember     map[string]bool
	RequiredReferrals int
	ReferralCount     int
}

// EvaluateGates runs the claim gates in their fixed order. A terminal failure
// short-circuits: later gates stay pending because their outcome no longer
// matters. CanClaim is true only when every gate passes.
func EvaluateGates(in GateInput) *Eligibility {
	out := &Eligibility{Gates: make(map[string]GateVerdict, len(gateOrder))}
	for _, name := range gateOrder {
		out.Gates[name] = GateVerdict{Status: GatePending}
	}

	if in.AlreadyClaimed {
		out.Gates[GateAlreadyClaimed] = GateVerdict{Status: GateFail, Terminal: true, Reason: "already claimed"}
		return out
	}
	out.Gates[GateAlreadyClaimed] = GateVerdict{Status: GatePass}

	if in.Banned {
		out.Gates[GateBan] = GateVerdict{Status: GateFail, Terminal: true, Reason: "number is banned"}
		return out
	}
	out.Gates[GateBan] = GateVerdict{Status: GatePass}

	if len(in.SpecialUsers) > 0 {
		allowed := false
		for _, mobile := range in.SpecialUsers {
			if mobile == in.Mobile {
				allowed = true
				break
			}
		}
		if !allowed {
			out.Gates[GateSpecialUser] = GateVerdict{Status: GateFail, Terminal: true, Reason: "reserved for specific users"}
			return out
		}
	}
	out.Gates[GateSpecialUser] = GateVerdict{Status: GatePass}

	if in.AccessCode != nil && *in.AccessCode != "" {
		switch {
		case in.SubmittedCode == "":
			out.Gates[GateAccessCode] = GateVerdict{Status: GatePending, Reason: "access code required"}
		case in.SubmittedCode != *in.AccessCode:
			out.Gates[GateAccessCode] = GateVerdict{Status: GateFail, Reason: "wrong access code"}
		default:
			out.Gates[GateAccessCode] = GateVerdict{Status: GatePass}
		}
	} else {
		out.Gates[GateAccessCode] = GateVerdict{Status: GatePass}
	}

	if len(in.RequiredChannels) > 0 {
		joined := true
		for _, channel := range in.RequiredChannels {
			if !in.ChannelMember[channel] {
				joined = false
				break
			}
		}
		if joined {
			out.Gates[GateChannels] = GateVerdict{Status: GatePass}
		} else {
			out.Gates[GateChannels] = GateVerdict{Status: GateFail, Reason: "join the required channels"}
		}
	} else {
		out.Gates[GateChannels] = GateVerdict{Status: GatePass}
	}

	if in.RequiredReferrals > 0 && in.ReferralCount < in.RequiredReferrals {
		out.Gates[GateReferrals] = GateVerdict{Status: GateFail, Reason: "not enough referrals"}
	} else {
		out.Gates[GateReferrals] = GateVerdict{Status: GatePass}
	}

	out.CanClaim = true
	for _, v := range out.Gates {
		if v.Status != GatePass {
			out.CanClaim = false
			break
		}
	}
	return out
}

// RequirementService loads a claimant's state and feeds it through the gate
// pipeline.
type RequirementService struct {
	db              *gorm.DB
	lifafaRepo      *repository.LifafaRepository
	banRepo         *repository.BanRepository
	referralCounter verify.ReferralCounter
	channelOracle   verify.ChannelMembershipOracle
}

func NewRequirementService(db *gorm.DB, channelOracle verify.ChannelMembershipOracle) *RequirementService {
	return &RequirementService{
		db:              db,
		lifafaRepo:      repository.NewLifafaRepository(db),
		banRepo:         repository.NewBanRepository(db),
		referralCounter: repository.NewAffiliateRepository(db),
		channelOracle:   channelOracle,
	}
}

// Evaluate checks every claim gate for user against lifafa. submittedCode is
// the access code the user typed, empty when none was given.
func (s *RequirementService) Evaluate(ctx context.Context, lifafa *model.Lifafa, user *model.User, submittedCode string) (*Eligibility, error) {
	in := GateInput{
		Mobile:        user.Mobile,
		AccessCode:    lifafa.AccessCode,
		SubmittedCode: submittedCode,
	}

	var err error
	in.AlreadyClaimed, err = s.lifafaRepo.HasClaim(ctx, lifafa.Code, user.Username)
	if err != nil {
		return nil, err
	}

	in.Banned, err = s.banRepo.IsBanned(ctx, user.Mobile)
	if err != nil {
		return nil, err
	}

	in.SpecialUsers, err = lifafa.GetSpecialUsers()
	if err != nil {
		return nil, err
	}

	reqs, err := lifafa.GetRequirements()
	if err != nil {
		return nil, err
	}
	in.RequiredChannels = reqs.Channels
	in.RequiredReferrals = reqs.Referrals
	if len(reqs.Channels) > 0 {
		in.ChannelMember = make(map[string]bool, len(reqs.Channels))
		for _, channel := range reqs.Channels {
			member, err := s.channelOracle.IsMember(ctx, user.Username, channel)
			if err != nil {
				return nil, err
			}
			in.ChannelMember[channel] = member
		}
	}
	if reqs.Referrals > 0 {
		in.ReferralCount, err = s.referralCounter.ReferralCount(ctx, user.Username)
		if err != nil {
			return nil, err
		}
	}

	return EvaluateGates(in), nil
}

// Package verify holds the external capability checks that lifafa claims and
// deposits depend on. Each is an interface so the stub implementations here
// can be swapped for real verifiers without touching the services.
package verify

import (
	"context"
	"regexp"

	"nextearnx/pkg/logger"
)

// ChannelMembershipOracle answers whether a user is a member of a channel.
type ChannelMembershipOracle interface {
	IsMember(ctx context.Context, username, channel string) (bool, error)
}

// ReferralCounter reports how many referrals a user has accumulated.
type ReferralCounter interface {
	ReferralCount(ctx context.Context, username string) (int, error)
}

// PaymentVerifier decides whether a submitted payment transaction id proves a
// completed payment.
type PaymentVerifier interface {
	Verify(ctx context.Context, txnID string) (bool, error)
}

// StubChannelOracle always reports membership. It exists so the channel gate
// has a seam for a real Telegram verifier; until one is wired in, this check
// is NOT a security control and every pass is logged as a stub result.
type StubChannelOracle struct{}

func NewStubChannelOracle() StubChannelOracle { return StubChannelOracle{} }

func (StubChannelOracle) IsMember(ctx context.Context, username, channel string) (bool, error) {
	logger.Warnw("channel membership check is stubbed, reporting member",
		"username", username, "channel", channel)
	return true, nil
}

var txnIDPattern = regexp.MustCompile(`^[a-zA-Z0-9]{8,}$`)

// FormatPaymentVerifier accepts any well-formed transaction id. No processor
// is consulted; a conforming string is treated as proof of payment, which is
// exactly as strong as it sounds.
type FormatPaymentVerifier struct{}

func NewFormatPaymentVerifier() FormatPaymentVerifier { return FormatPaymentVerifier{} }

func (FormatPaymentVerifier) Verify(ctx context.Context, txnID string) (bool, error) {
	return txnIDPattern.MatchString(txnID), nil
}

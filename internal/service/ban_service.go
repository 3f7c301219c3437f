package service

import (
	"context"
	"regexp"

	"gorm.io/gorm"

	"nextearnx/internal/repository"
	"nextearnx/pkg/logger"
)

var (
	mobileSplitRegex = regexp.MustCompile(`[,.\s\n]+`)
	tenDigitRegex    = regexp.MustCompile(`^\d{10}$`)
)

// ParseMobiles extracts 10-digit mobile numbers from free-form text. Input
// may be separated by commas, dots, spaces or newlines; anything that is not
// exactly ten digits is dropped. Order is kept, duplicates are not.
func ParseMobiles(text string) []string {
	seen := make(map[string]struct{})
	var mobiles []string
	for _, token := range mobileSplitRegex.Split(text, -1) {
		if !tenDigitRegex.MatchString(token) {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		mobiles = append(mobiles, token)
	}
	return mobiles
}

type BanService struct {
	banRepo *repository.BanRepository
}

func NewBanService(db *gorm.DB) *BanService {
	return &BanService{banRepo: repository.NewBanRepository(db)}
}

type BanResult struct {
	Parsed int `json:"parsed"`
	Added  int `json:"added"`
}

// Ban parses the pasted text and adds every valid number, skipping ones
// already on the list.
func (s *BanService) Ban(ctx context.Context, text string) (*BanResult, error) {
	mobiles := ParseMobiles(text)
	if len(mobiles) == 0 {
		return &BanResult{}, nil
	}
	added, err := s.banRepo.Add(ctx, mobiles)
	if err != nil {
		return nil, err
	}
	logger.Infow("numbers banned", "parsed", len(mobiles), "added", added)
	return &BanResult{Parsed: len(mobiles), Added: int(added)}, nil
}

// Unban removes one number; reports whether it was on the list at all.
func (s *BanService) Unban(ctx context.Context, mobile string) (bool, error) {
	return s.banRepo.Remove(ctx, mobile)
}

func (s *BanService) List(ctx context.Context) ([]string, error) {
	return s.banRepo.List(ctx)
}

func (s *BanService) IsBanned(ctx context.Context, mobile string) (bool, error) {
	return s.banRepo.IsBanned(ctx, mobile)
}

package accesscode

import (
	"crypto/rand"
	"errors"
	"math/big"
	"regexp"

	"go.uber.org/zap"

	"github.com/gymqrs/backend/internal/config"
)

const (
	codeDigits               = 8
	defaultBatchSize         = 10
	defaultAttemptMultiplier = 3
)

var (
	ErrGenerationExhausted = errors.New("failed to generate requested number of unique codes")
	ErrInvalidFormat       = errors.New("invalid access code format")
)

// codePattern matches every well-formed code of either tier.
var codePattern = regexp.MustCompile(`^(QRG|PREM)\d{8}$`)

type Service struct {
	config     *config.AccessCodeConfig
	log        *zap.Logger
	repository Repository
}

func NewService(config *config.AccessCodeConfig, log *zap.Logger, repo Repository) *Service {
	return &Service{
		config:     config,
		log:        log,
		repository: repo,
	}
}

// GenerateCode builds a single candidate code: tier prefix plus eight random
// decimal digits. Pure, no I/O.
func GenerateCode(tier Tier) (string, error) {
	digits := make([]byte, codeDigits)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = '0' + byte(n.Int64())
	}
	return tier.Prefix() + string(digits), nil
}

// GenerateBatch produces count unique codes and commits them as one batch,
// returned in generation order. Candidates are checked against the in-flight
// batch and the persisted set; the attempt budget of count*3 is a circuit
// breaker against a corrupted or near-exhausted code space, not an
// expected-path mechanism. A uniqueness violation at commit time means a
// concurrent batch won the race for a candidate, and counts as a collision.
func (s *Service) GenerateBatch(tier Tier, count int) ([]string, error) {
	if count <= 0 {
		count = s.config.DefaultBatchSize
		if count <= 0 {
			count = defaultBatchSize
		}
	}
	multiplier := s.config.AttemptMultiplier
	if multiplier <= 0 {
		multiplier = defaultAttemptMultiplier
	}
	maxAttempts := count * multiplier

	codes := make([]string, 0, count)
	seen := make(map[string]struct{}, count)
	attempts := 0

	for {
		for len(codes) < count && attempts < maxAttempts {
			attempts++
			code, err := GenerateCode(tier)
			if err != nil {
				return nil, err
			}
			if _, dup := seen[code]; dup {
				continue
			}
			exists, err := s.repository.Exists(code)
			if err != nil {
				return nil, err
			}
			if exists {
				continue
			}
			seen[code] = struct{}{}
			codes = append(codes, code)
		}

		if len(codes) < count {
			s.log.Error("code generation exhausted its attempt budget",
				zap.String("tier", string(tier)),
				zap.Int("generated", len(codes)),
				zap.Int("attempts", attempts))
			return nil, ErrGenerationExhausted
		}

		err := s.repository.CreateBatch(newBatch(tier, codes))
		if err == nil {
			return codes, nil
		}
		if !errors.Is(err, ErrDuplicateCode) {
			return nil, err
		}

		// Lost the check-then-act race. Drop the candidates that now exist
		// and keep generating within the remaining budget. The failed
		// insert consumes an attempt so a persistently failing batch
		// cannot loop forever.
		attempts++
		codes, err = s.dropPersisted(codes, seen)
		if err != nil {
			return nil, err
		}
		if attempts >= maxAttempts {
			return nil, ErrGenerationExhausted
		}
	}
}

// VerifyCode reports whether a well-formed code exists and is still
// unredeemed, along with its tier.
func (s *Service) VerifyCode(code string) (bool, Tier, error) {
	if !codePattern.MatchString(code) {
		return false, "", ErrInvalidFormat
	}

	row, err := s.repository.FindByCode(code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return false, "", nil
		}
		return false, "", err
	}
	return !row.IsUsed, row.Tier, nil
}

func newBatch(tier Tier, codes []string) []*AccessCode {
	rows := make([]*AccessCode, len(codes))
	for i, code := range codes {
		rows[i] = &AccessCode{Code: code, Tier: tier}
	}
	return rows
}

func (s *Service) dropPersisted(codes []string, seen map[string]struct{}) ([]string, error) {
	kept := codes[:0]
	for _, code := range codes {
		exists, err := s.repository.Exists(code)
		if err != nil {
			return nil, err
		}
		if exists {
			delete(seen, code)
			continue
		}
		kept = append(kept, code)
	}
	return kept, nil
}

// internal/services/token_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/forkchain/recipe-market/internal/apperrors"
)

type TokenServiceSuite struct {
	marketSuite
}

func (s *TokenServiceSuite) TestAllowList() {
	allowed, err := s.tokens.IsAllowListed(s.db, "USDC")
	s.Require().NoError(err)
	s.True(allowed)

	allowed, err = s.tokens.IsAllowListed(s.db, "DOGE")
	s.Require().NoError(err)
	s.False(allowed)
}

func (s *TokenServiceSuite) TestMintAndBalance() {
	holder := uuid.New()
	s.Equal(int64(0), s.balance(holder, "USDC"))

	s.Require().NoError(s.tokens.Mint(s.db, holder, "USDC", 1_000))
	s.Require().NoError(s.tokens.Mint(s.db, holder, "USDC", 500))
	s.Equal(int64(1_500), s.balance(holder, "USDC"))

	// Balances are per token.
	s.Equal(int64(0), s.balance(holder, "USDT"))

	s.ErrorIs(s.tokens.Mint(s.db, holder, "USDC", 0), apperrors.ErrInvalidPrice)
}

func (s *TokenServiceSuite) TestTransfer() {
	from := uuid.New()
	to := uuid.New()
	s.fund(from, "USDC", 1_000)

	s.Require().NoError(s.tokens.Transfer(s.db, from, to, "USDC", 400))
	s.Equal(int64(600), s.balance(from, "USDC"))
	s.Equal(int64(400), s.balance(to, "USDC"))

	s.ErrorIs(s.tokens.Transfer(s.db, from, to, "USDC", 601), apperrors.ErrInsufficientBalance)
	s.ErrorIs(s.tokens.Transfer(s.db, from, to, "USDC", -1), apperrors.ErrInvalidPrice)

	// A holder with no balance row cannot send.
	s.ErrorIs(s.tokens.Transfer(s.db, uuid.New(), to, "USDC", 1), apperrors.ErrInsufficientBalance)
}

func (s *TokenServiceSuite) TestTransferIsAtomicInTransaction() {
	from := uuid.New()
	to := uuid.New()
	s.fund(from, "USDC", 1_000)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.tokens.Transfer(tx, from, to, "USDC", 400); err != nil {
			return err
		}
		return s.tokens.Transfer(tx, from, to, "USDC", 700)
	})
	s.ErrorIs(err, apperrors.ErrInsufficientBalance)

	// The first leg rolled back with the second.
	s.Equal(int64(1_000), s.balance(from, "USDC"))
	s.Equal(int64(0), s.balance(to, "USDC"))
}

func TestTokenServiceSuite(t *testing.T) {
	suite.Run(t, new(TokenServiceSuite))
}

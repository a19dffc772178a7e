package repositories

import (
	"github.com/checkmarble/kyc-backend/repositories/clock"
)

type Repositories struct {
	ExecutorGetter                 ExecutorGetter
	KycRepository                  *KycDbRepository
	BlobRepository                 *BlobRepository
	DocumentIntelligenceRepository *DocumentIntelligenceRepository
	ReasoningRepository            *ReasoningRepository
	JwtRepository                  *JwtRepository
	Clock                          clock.Clock
}

type Option func(*Repositories)

func WithBlobRepository(repo *BlobRepository) Option {
	return func(r *Repositories) {
		r.BlobRepository = repo
	}
}

func WithDocumentIntelligenceRepository(repo *DocumentIntelligenceRepository) Option {
	return func(r *Repositories) {
		r.DocumentIntelligenceRepository = repo
	}
}

func WithReasoningRepository(repo *ReasoningRepository) Option {
	return func(r *Repositories) {
		r.ReasoningRepository = repo
	}
}

func WithJwtRepository(repo *JwtRepository) Option {
	return func(r *Repositories) {
		r.JwtRepository = repo
	}
}

func WithClock(c clock.Clock) Option {
	return func(r *Repositories) {
		r.Clock = c
	}
}

func NewRepositories(pool connectionPool, opts ...Option) Repositories {
	repos := Repositories{
		ExecutorGetter: NewExecutorGetter(pool),
		KycRepository:  NewKycDbRepository(),
		Clock:          clock.New(),
	}
	for _, opt := range opts {
		opt(&repos)
	}
	return repos
}

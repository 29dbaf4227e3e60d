package election

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/gestaozabele/eleicoes/internal/repo"
)

// ResultsRepository abstrai a leitura dos dados eleitorais.
type ResultsRepository interface {
	ListElections(context.Context) ([]Election, error)
	GetElection(context.Context, string) (Election, error)
	ListDicoCodes(context.Context, DicoFilter) ([]DicoCode, error)
	GetDicoCode(context.Context, string) (DicoCode, []DicoCode, error)
	ListResults(context.Context, string, *int) ([]Result, error)
	ListResultsByGeography(context.Context, string, string) ([]Result, error)
}

// Service contém as consultas e agregações expostas pela API.
type Service struct {
	repo     ResultsRepository
	cache    *redis.Client
	cacheTTL time.Duration
}

// NewService aceita cache nil; nesse caso toda leitura vai ao repositório.
func NewService(repo ResultsRepository, cache *redis.Client, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

func (s *Service) ListElections(ctx context.Context) ([]Election, error) {
	return s.repo.ListElections(ctx)
}

func (s *Service) GetElection(ctx context.Context, electionID string) (Election, error) {
	return s.repo.GetElection(ctx, electionID)
}

func (s *Service) ListDicoCodes(ctx context.Context, filter DicoFilter) ([]DicoCode, error) {
	return s.repo.ListDicoCodes(ctx, filter)
}

func (s *Service) GetDicoCode(ctx context.Context, code string) (DicoDetail, error) {
	dico, children, err := s.repo.GetDicoCode(ctx, code)
	if err != nil {
		return DicoDetail{}, err
	}
	if children == nil {
		children = []DicoCode{}
	}
	return DicoDetail{DicoCode: dico, Children: children}, nil
}

func (s *Service) ListResults(ctx context.Context, electionID string, level *int) ([]Result, error) {
	return s.repo.ListResults(ctx, electionID, level)
}

// ListResultsByGeography devolve repo.ErrNotFound quando não há linhas.
func (s *Service) ListResultsByGeography(ctx context.Context, electionID, dicoCode string) ([]Result, error) {
	results, err := s.repo.ListResultsByGeography(ctx, electionID, dicoCode)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, repo.ErrNotFound
	}
	return results, nil
}

func (s *Service) Summarize(ctx context.Context, electionID, dicoCode string) (Summary, error) {
	key := fmt.Sprintf("eleicoes:summary:%s:%s", electionID, dicoCode)

	var summary Summary
	if s.fromCache(ctx, key, &summary) {
		return summary, nil
	}

	results, err := s.ListResultsByGeography(ctx, electionID, dicoCode)
	if err != nil {
		return Summary{}, err
	}

	summary = BuildSummary(electionID, dicoCode, results)
	s.toCache(ctx, key, summary)
	return summary, nil
}

func (s *Service) Stats(ctx context.Context, electionID string) (Stats, error) {
	key := fmt.Sprintf("eleicoes:stats:%s", electionID)

	var stats Stats
	if s.fromCache(ctx, key, &stats) {
		return stats, nil
	}

	e, err := s.repo.GetElection(ctx, electionID)
	if err != nil {
		return Stats{}, err
	}

	results, err := s.repo.ListResults(ctx, electionID, nil)
	if err != nil {
		return Stats{}, err
	}

	stats = BuildStats(e, results)
	s.toCache(ctx, key, stats)
	return stats, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Debug().Err(err).Str("key", key).Msg("cache indisponível")
		}
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) toCache(ctx context.Context, key string, value any) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	if payload, err := json.Marshal(value); err == nil {
		_ = s.cache.Set(ctx, key, payload, s.cacheTTL).Err()
	}
}

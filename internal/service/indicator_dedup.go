package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"macrocal/internal/models"
	"macrocal/internal/normalize"
	"macrocal/internal/repository"
)

type DedupResult struct {
	Indicators      int      `json:"indicators"`
	DuplicateGroups int      `json:"duplicate_groups"`
	Merged          int      `json:"merged"`
	Reparented      int      `json:"reparented"`
	DeletedReleases int      `json:"deleted_releases"`
	Renamed         int      `json:"renamed"`
	Unresolved      int      `json:"unresolved"`
	Errors          []string `json:"errors,omitempty"`
}

// Changes is the number of writes the pass performed.
func (r DedupResult) Changes() int {
	return r.Merged + r.Reparented + r.DeletedReleases + r.Renamed
}

// IndicatorDedupService merges indicators that share (country_code, canonical name).
// The oldest row of a group wins (ties broken by id); a failed group is left for the next run.
type IndicatorDedupService struct {
	Store    repository.Repository
	Logger   *zap.Logger
	Recorder Recorder
}

type indicatorGroup struct {
	key       string
	canonical string
	members   []models.Indicator
}

func (s *IndicatorDedupService) Run(ctx context.Context) (DedupResult, error) {
	var result DedupResult
	all, err := s.Store.ListAllIndicators(ctx)
	if err != nil {
		return result, err
	}
	result.Indicators = len(all)

	for _, group := range groupIndicators(all) {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		winner := group.members[0]
		if len(group.members) > 1 {
			result.DuplicateGroups++
			if err := s.mergeGroup(ctx, group, &result); err != nil {
				s.fail(&result, err)
				continue
			}
		}
		if winner.Name != group.canonical || winner.NormalizedName != group.canonical {
			if err := s.Store.RenameIndicatorTx(ctx, nil, winner.ID, group.canonical); err != nil {
				s.fail(&result, &MergeError{Group: group.key, Op: "rename " + winner.ID, Err: err})
				continue
			}
			result.Renamed++
		}
	}

	recorderOrNop(s.Recorder).DedupFinished(result.Merged, result.Renamed)
	if s.Logger != nil {
		s.Logger.Info("indicator dedup finished",
			zap.Int("indicators", result.Indicators),
			zap.Int("duplicate_groups", result.DuplicateGroups),
			zap.Int("merged", result.Merged),
			zap.Int("renamed", result.Renamed),
			zap.Int("unresolved", result.Unresolved),
		)
	}
	return result, nil
}

// mergeGroup folds every loser into the winner, one transaction per loser.
func (s *IndicatorDedupService) mergeGroup(ctx context.Context, group indicatorGroup, result *DedupResult) error {
	winner := group.members[0]
	for _, loser := range group.members[1:] {
		var reparented, deleted int
		err := s.Store.InTx(ctx, func(tx *gorm.DB) error {
			reparented, deleted = 0, 0
			winnerReleases, err := s.Store.ListReleasesByIndicatorTx(ctx, tx, winner.ID)
			if err != nil {
				return err
			}
			taken := make(map[int64]struct{}, len(winnerReleases))
			for _, rel := range winnerReleases {
				taken[rel.ReleaseAt.UTC().UnixNano()] = struct{}{}
			}
			loserReleases, err := s.Store.ListReleasesByIndicatorTx(ctx, tx, loser.ID)
			if err != nil {
				return err
			}
			for _, rel := range loserReleases {
				at := rel.ReleaseAt.UTC().UnixNano()
				if _, dup := taken[at]; dup {
					if err := s.Store.DeleteReleaseTx(ctx, tx, rel.ID); err != nil {
						return err
					}
					deleted++
					continue
				}
				if err := s.Store.ReparentReleaseTx(ctx, tx, rel.ID, winner.ID); err != nil {
					return err
				}
				taken[at] = struct{}{}
				reparented++
			}
			return s.Store.DeleteIndicatorTx(ctx, tx, loser.ID)
		})
		if err != nil {
			return &MergeError{Group: group.key, Op: "merge " + loser.ID + " into " + winner.ID, Err: err}
		}
		result.Merged++
		result.Reparented += reparented
		result.DeletedReleases += deleted
	}
	return nil
}

func (s *IndicatorDedupService) fail(result *DedupResult, err error) {
	result.Unresolved++
	result.Errors = append(result.Errors, err.Error())
	if s.Logger != nil {
		var merr *MergeError
		group := ""
		if errors.As(err, &merr) {
			group = merr.Group
		}
		s.Logger.Warn("indicator group left unresolved", zap.String("group", group), zap.Error(err))
	}
}

// groupIndicators buckets by country and canonical name, ordering each bucket
// oldest first and the buckets by their winner.
func groupIndicators(items []models.Indicator) []indicatorGroup {
	index := map[string]int{}
	var groups []indicatorGroup
	for _, ind := range items {
		base := ind.NormalizedName
		if strings.TrimSpace(base) == "" {
			base = ind.Name
		}
		canonical := normalize.CanonicalName(base)
		if canonical == "" {
			continue
		}
		key := ind.CountryCode + "|" + canonical
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, indicatorGroup{key: key, canonical: canonical})
		}
		groups[i].members = append(groups[i].members, ind)
	}
	for i := range groups {
		sort.SliceStable(groups[i].members, func(a, b int) bool {
			return olderIndicator(groups[i].members[a], groups[i].members[b])
		})
	}
	sort.SliceStable(groups, func(a, b int) bool {
		return olderIndicator(groups[a].members[0], groups[b].members[0])
	})
	return groups
}

func olderIndicator(a, b models.Indicator) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}


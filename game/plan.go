package game

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"attuned-server/content"
	"attuned-server/gameerrors"
	"attuned-server/pacing"
	"attuned-server/profile"
	"attuned-server/validate"
)

// PlanStats summarizes one batch generation pass.
type PlanStats struct {
	Total     int   `json:"total"`
	Truths    int   `json:"truths"`
	Dares     int   `json:"dares"`
	Repaired  int   `json:"repaired"`
	ElapsedMS int64 `json:"elapsed_ms"`
}

// SessionPlan is a complete pre-generated session: one SHOW_CARD entry
// per step up to the target length, produced by a single synchronous
// pass over the generation pipeline.
type SessionPlan struct {
	Entries []TurnEntry `json:"entries"`
	Stats   PlanStats   `json:"stats"`
	// Warnings carries sequence-level validation findings. The plan is
	// returned regardless; callers decide whether to regenerate.
	Warnings []string `json:"warnings,omitempty"`
}

// GenerateSession pre-generates a full session of TargetLength turns in
// one call, sharing the per-turn pipeline with the delivery queue. Each
// step is a single card; manual truth/dare pairing only applies to
// queue-delivered turns. No quota is charged here: metering belongs to
// the delivery queue, which hands turns out one advance at a time.
func (e *Engine) GenerateSession(ctx context.Context, caller Identity, parts []ParticipantInput, raw RawSettings) (*SessionPlan, error) {
	if caller.Zero() {
		return nil, gameerrors.ErrNoIdentity
	}
	if len(parts) < 2 {
		return nil, &gameerrors.StructuralError{Field: "participants", Reason: "at least two participants required"}
	}
	players, err := e.resolvePlayers(ctx, caller, parts)
	if err != nil {
		return nil, err
	}

	s := &Session{
		ID:            uuid.NewString(),
		OwnerIdentity: caller.Key(),
		Players:       players,
		Settings:      raw.Normalize(),
		State: TurnState{
			Version:       turnStateVersion,
			Queue:         []TurnEntry{},
			PlayedIDs:     []string{},
			UsedFallbacks: map[string]bool{},
		},
	}

	started := time.Now()
	rating := s.Settings.Rating()
	rules := validate.Rules{
		Rating:          rating,
		TargetLength:    e.cfg.TargetLength,
		AvoidMaybeUntil: e.cfg.AvoidMaybeUntil,
	}
	forced := content.Type("")
	if !s.Settings.IncludeDare {
		forced = content.TypeTruth
	}

	exclude := make(map[string]bool)
	for _, p := range s.Players {
		e.mergeRecentHistory(ctx, p.ID, exclude)
	}

	plan := &SessionPlan{Entries: make([]TurnEntry, 0, e.cfg.TargetLength)}
	seq := make([]validate.SequenceEntry, 0, e.cfg.TargetLength)

	for step := 1; step <= e.cfg.TargetLength; step++ {
		primary, secondary := s.Rotation(step)
		profA, profB := e.resolveProfiles(ctx, s.Players[primary], s.Players[secondary])

		slot := slotContext{
			session: s,
			step:    step,
			rating:  rating,
			profA:   profA,
			profB:   profB,
			limits:  profile.CombinedHardLimits(profA, profB),
			anatomy: e.availableAnatomy(s, profA, profB),
			exclude: exclude,
		}

		typ := pacing.PickType(step, e.cfg.TargetLength, plan.Stats.Truths, plan.Stats.Dares, forced)
		item, repaired, err := e.pickItem(ctx, slot, typ)
		if err != nil {
			return nil, err
		}
		exclude[item.ID] = true
		if repaired {
			plan.Stats.Repaired++
		}
		if item.Type == content.TypeDare {
			plan.Stats.Dares++
		} else {
			plan.Stats.Truths++
		}

		plan.Entries = append(plan.Entries, TurnEntry{
			Step:         step,
			PrimaryIdx:   primary,
			SecondaryIdx: secondary,
			Card:         cardFrom(item, s.Players[secondary].Name),
			Phase:        pacing.PhaseName(step, e.cfg.TargetLength),
			Status:       StatusShowCard,
		})
		seq = append(seq, validate.SequenceEntry{Step: step, Item: item})
	}

	if ok, errs := validate.CheckSequence(seq, rules); !ok {
		plan.Warnings = errs
		slog.Warn("generated plan has sequence findings", "tag", "game",
			"plan", s.ID, "findings", len(errs))
	}
	plan.Stats.Total = len(plan.Entries)
	plan.Stats.ElapsedMS = time.Since(started).Milliseconds()

	slog.Info("session plan generated", "tag", "game", "plan", s.ID,
		"turns", plan.Stats.Total, "truths", plan.Stats.Truths, "dares", plan.Stats.Dares,
		"repaired", plan.Stats.Repaired, "elapsed_ms", plan.Stats.ElapsedMS)
	return plan, nil
}

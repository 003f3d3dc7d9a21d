package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"attuned-server/content"
	"attuned-server/gameerrors"
	"attuned-server/pacing"
	"attuned-server/profile"
	"attuned-server/quota"
	"attuned-server/repair"
	"attuned-server/scoring"
	"attuned-server/selector"
	"attuned-server/validate"
)

// repairPoolSize bounds the alternative-candidate pool fetched when a
// slot needs repairing.
const repairPoolSize = 50

// limitReachedText is the display text carried by sentinel entries.
const limitReachedText = "Activity limit reached. Tap to unlock unlimited turns."

// Identity is the caller's billing identity: an authenticated user id,
// an anonymous session id, or (invalid) neither.
type Identity struct {
	UserID      string
	AnonymousID string
}

// Key returns the quota key for the identity, preferring the
// authenticated id.
func (id Identity) Key() string {
	if id.UserID != "" {
		return id.UserID
	}
	return id.AnonymousID
}

// Zero reports whether no identity was provided at all.
func (id Identity) Zero() bool {
	return id.UserID == "" && id.AnonymousID == ""
}

// ParticipantInput is the wire shape of one requested participant.
// Entries without a user id become guests with a generated id.
type ParticipantInput struct {
	UserID  string   `json:"user_id,omitempty"`
	Name    string   `json:"name"`
	Anatomy []string `json:"anatomy,omitempty"`
}

// EngineConfig holds the engine's tunables. Zero values fall back to
// the server defaults.
type EngineConfig struct {
	TargetLength        int
	QueueTargetSize     int
	AvoidMaybeUntil     int
	PlayerHistoryWindow int
	MaxNameLength       int
	QuotaMode           quota.Mode
}

func (c *EngineConfig) applyDefaults() {
	if c.TargetLength <= 0 {
		c.TargetLength = 25
	}
	if c.QueueTargetSize <= 0 {
		c.QueueTargetSize = 3
	}
	if c.AvoidMaybeUntil <= 0 {
		c.AvoidMaybeUntil = 6
	}
	if c.PlayerHistoryWindow <= 0 {
		c.PlayerHistoryWindow = 100
	}
	if c.MaxNameLength <= 0 {
		c.MaxNameLength = 24
	}
	if c.QuotaMode == "" {
		c.QuotaMode = quota.ModeLifetime
	}
}

// EngineParams collects the engine's collaborators.
type EngineParams struct {
	Sessions SessionStore
	History  HistoryStore
	Users    UserStore
	Profiles ProfileStore
	Bank     content.Store
	Picker   *selector.Selector
	Repairer *repair.Chain
	Counter  quota.Counter
}

// Engine owns the session lifecycle: starting sessions, generating
// turns into the delivery queue and advancing through it under the
// activity quota.
type Engine struct {
	sessions SessionStore
	history  HistoryStore
	users    UserStore
	profiles ProfileStore
	bank     content.Store
	picker   *selector.Selector
	repairer *repair.Chain
	counter  quota.Counter
	cfg      EngineConfig
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(p EngineParams, cfg EngineConfig) *Engine {
	cfg.applyDefaults()
	return &Engine{
		sessions: p.Sessions,
		history:  p.History,
		users:    p.Users,
		profiles: p.Profiles,
		bank:     p.Bank,
		picker:   p.Picker,
		repairer: p.Repairer,
		counter:  p.Counter,
		cfg:      cfg,
	}
}

// StartSession creates a session for the caller, fills the turn queue
// and charges one quota unit for the visible head. Exhausted callers
// still get a session, but every queued entry is a limit sentinel.
func (e *Engine) StartSession(ctx context.Context, caller Identity, parts []ParticipantInput, raw RawSettings) (*Session, quota.Status, error) {
	if caller.Zero() {
		return nil, quota.Status{}, gameerrors.ErrNoIdentity
	}
	if len(parts) < 2 {
		return nil, quota.Status{}, &gameerrors.StructuralError{Field: "participants", Reason: "at least two participants required"}
	}

	players, err := e.resolvePlayers(ctx, caller, parts)
	if err != nil {
		return nil, quota.Status{}, err
	}

	unlimited := false
	if caller.UserID != "" {
		u, err := e.users.GetUser(ctx, caller.UserID)
		if err != nil {
			return nil, quota.Status{}, err
		}
		if u == nil {
			return nil, quota.Status{}, fmt.Errorf("%w: %s", gameerrors.ErrUserNotFound, caller.UserID)
		}
		unlimited = u.Premium()
	}

	s := &Session{
		ID:             uuid.NewString(),
		OwnerIdentity:  caller.Key(),
		OwnerAnonymous: caller.UserID == "",
		Unlimited:      unlimited,
		Players:        players,
		Settings:       raw.Normalize(),
		State: TurnState{
			Version:       turnStateVersion,
			Queue:         []TurnEntry{},
			PlayedIDs:     []string{},
			UsedFallbacks: map[string]bool{},
		},
		CreatedAt: time.Now().UTC(),
	}

	if err := e.fillQueue(ctx, s); err != nil {
		return nil, quota.Status{}, err
	}
	status, err := e.enforceQuota(ctx, s, true)
	if err != nil {
		return nil, quota.Status{}, err
	}

	if err := e.sessions.SaveSession(ctx, s); err != nil {
		return nil, quota.Status{}, err
	}

	slog.Info("session started", "tag", "game",
		"session", s.ID, "players", len(players),
		"intimacy", s.Settings.IntimacyLevel, "mode", s.Settings.SelectionMode)
	return s, status, nil
}

// AdvanceTurn consumes the head of the queue, records and charges it
// if it was real content, replenishes the queue to its target size and
// returns the fresh queue and quota status.
//
// In MANUAL selection mode the caller must say which of the two
// offered cards was played via selected.
func (e *Engine) AdvanceTurn(ctx context.Context, sessionID string, caller Identity, selected content.Type) (*Session, quota.Status, error) {
	if caller.Zero() {
		return nil, quota.Status{}, gameerrors.ErrNoIdentity
	}
	s, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, quota.Status{}, err
	}
	MigrateTurnState(&s.State)
	if !e.isParticipant(s, caller) {
		return nil, quota.Status{}, gameerrors.ErrNotParticipant
	}

	if len(s.State.Queue) > 0 {
		head := s.State.Queue[0]
		played, err := e.consumedCard(s, head, selected)
		if err != nil {
			return nil, quota.Status{}, err
		}
		s.State.Queue = s.State.Queue[1:]

		if played != nil {
			s.State.Step = head.Step
			s.State.PlayedIDs = append(s.State.PlayedIDs, played.ItemID)
			if s.Settings.SelectionMode == SelectionManual {
				if played.Type == content.TypeDare {
					s.State.DaresSoFar++
				} else {
					s.State.TruthsSoFar++
				}
			}

			primaryID := ""
			if head.PrimaryIdx >= 0 && head.PrimaryIdx < len(s.Players) {
				primaryID = s.Players[head.PrimaryIdx].ID
			}
			rec := PlayRecord{
				Identity:        s.OwnerIdentity,
				SessionID:       s.ID,
				ItemID:          played.ItemID,
				Type:            played.Type,
				PrimaryPlayerID: primaryID,
				PlayedAt:        time.Now().UTC(),
			}
			if err := e.history.RecordPlay(ctx, rec); err != nil {
				slog.Warn("failed to record play history", "tag", "game", "session", s.ID, "error", err)
			}
			if !s.Unlimited {
				if err := e.counter.Increment(ctx, s.OwnerIdentity); err != nil {
					return nil, quota.Status{}, err
				}
			}
		}
	}

	if err := e.fillQueue(ctx, s); err != nil {
		return nil, quota.Status{}, err
	}
	// The popped card was already charged above; the refill is free.
	status, err := e.enforceQuota(ctx, s, false)
	if err != nil {
		return nil, quota.Status{}, err
	}

	if err := e.sessions.SaveSession(ctx, s); err != nil {
		return nil, quota.Status{}, err
	}
	return s, status, nil
}

// Session loads a session for a participant, migrated to the current
// state version.
func (e *Engine) Session(ctx context.Context, sessionID string, caller Identity) (*Session, error) {
	if caller.Zero() {
		return nil, gameerrors.ErrNoIdentity
	}
	s, err := e.sessions.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	MigrateTurnState(&s.State)
	if !e.isParticipant(s, caller) {
		return nil, gameerrors.ErrNotParticipant
	}
	return s, nil
}

// QuotaStatus reports the caller's current standing without touching
// any session.
func (e *Engine) QuotaStatus(ctx context.Context, caller Identity) (quota.Status, error) {
	if caller.Zero() {
		return quota.Status{}, gameerrors.ErrNoIdentity
	}
	if caller.UserID != "" {
		u, err := e.users.GetUser(ctx, caller.UserID)
		if err != nil {
			return quota.Status{}, err
		}
		if u == nil {
			return quota.Status{}, fmt.Errorf("%w: %s", gameerrors.ErrUserNotFound, caller.UserID)
		}
		if u.Premium() {
			return quota.Unlimited(e.cfg.QuotaMode), nil
		}
	}
	return e.counter.Check(ctx, caller.Key())
}

// consumedCard resolves which card the popped head represents.
// Sentinels consume nothing.
func (e *Engine) consumedCard(s *Session, head TurnEntry, selected content.Type) (*Card, error) {
	if head.IsSentinel() {
		return nil, nil
	}
	if s.Settings.SelectionMode != SelectionManual {
		return head.Card, nil
	}
	var c *Card
	switch selected {
	case content.TypeTruth:
		c = head.TruthCard
	case content.TypeDare:
		c = head.DareCard
	default:
		return nil, fmt.Errorf("%w: selected_type must be truth or dare", gameerrors.ErrInvalidSelection)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: %s not offered this turn", gameerrors.ErrInvalidSelection, selected)
	}
	return c, nil
}

func (e *Engine) isParticipant(s *Session, caller Identity) bool {
	if caller.Key() == s.OwnerIdentity {
		return true
	}
	for _, p := range s.Players {
		if caller.UserID != "" && p.UserID == caller.UserID {
			return true
		}
		if caller.AnonymousID != "" && p.ID == caller.AnonymousID {
			return true
		}
	}
	return false
}

func (e *Engine) resolvePlayers(ctx context.Context, caller Identity, parts []ParticipantInput) ([]Player, error) {
	players := make([]Player, 0, len(parts))
	for i, in := range parts {
		if in.UserID != "" {
			u, err := e.users.GetUser(ctx, in.UserID)
			if err != nil {
				return nil, err
			}
			if u == nil {
				return nil, fmt.Errorf("%w: %s", gameerrors.ErrUserNotFound, in.UserID)
			}
			name := in.Name
			if name == "" {
				name = u.DisplayName
			}
			anatomy := in.Anatomy
			if len(anatomy) == 0 {
				anatomy = u.Anatomy
			}
			players = append(players, Player{
				ID:      u.ID,
				UserID:  u.ID,
				Name:    e.clampName(name),
				Anatomy: anatomy,
			})
			continue
		}

		if in.Name == "" {
			return nil, &gameerrors.StructuralError{Field: "participants", Reason: fmt.Sprintf("participant %d needs a name", i)}
		}
		id := uuid.NewString()
		// The anonymous caller keeps their session id as player id so
		// participant checks recognize them on later calls.
		if i == 0 && caller.UserID == "" && caller.AnonymousID != "" {
			id = caller.AnonymousID
		}
		players = append(players, Player{
			ID:      id,
			Name:    e.clampName(in.Name),
			Anatomy: in.Anatomy,
			IsGuest: true,
		})
	}
	return players, nil
}

func (e *Engine) clampName(name string) string {
	r := []rune(name)
	if len(r) > e.cfg.MaxNameLength {
		return string(r[:e.cfg.MaxNameLength])
	}
	return name
}

// fillQueue appends generated turns until the queue is at target size.
// Once the quota is exhausted the remaining slots fill with sentinels.
func (e *Engine) fillQueue(ctx context.Context, s *Session) error {
	status, err := e.quotaStatus(ctx, s)
	if err != nil {
		return err
	}
	for len(s.State.Queue) < e.cfg.QueueTargetSize {
		if status.LimitReached {
			s.State.Queue = append(s.State.Queue, sentinelEntry())
			continue
		}
		entry, err := e.generateTurn(ctx, s)
		if err != nil {
			return err
		}
		s.State.Queue = append(s.State.Queue, entry)
	}
	return nil
}

// enforceQuota charges one unit for a real head when asked, re-checks
// the quota and scrubs the queue if the limit is reached. The returned
// status is always the post-charge one.
//
// The head survives a scrub only when the identity landed exactly at
// the limit (the head is paid for); going over it scrubs everything.
func (e *Engine) enforceQuota(ctx context.Context, s *Session, chargeHead bool) (quota.Status, error) {
	headReal := len(s.State.Queue) > 0 && !s.State.Queue[0].IsSentinel()

	if chargeHead && headReal && !s.Unlimited {
		if err := e.counter.Increment(ctx, s.OwnerIdentity); err != nil {
			return quota.Status{}, err
		}
	}

	status, err := e.quotaStatus(ctx, s)
	if err != nil {
		return quota.Status{}, err
	}
	if status.LimitReached {
		keepFirst := status.Used <= status.Limit && headReal
		scrubQueue(s, keepFirst)
	}
	return status, nil
}

func (e *Engine) quotaStatus(ctx context.Context, s *Session) (quota.Status, error) {
	if s.Unlimited {
		return quota.Unlimited(e.cfg.QuotaMode), nil
	}
	return e.counter.Check(ctx, s.OwnerIdentity)
}

// scrubQueue replaces queued real entries with sentinels, optionally
// preserving the head.
func scrubQueue(s *Session, keepFirst bool) {
	start := 0
	if keepFirst {
		start = 1
	}
	for i := start; i < len(s.State.Queue); i++ {
		if !s.State.Queue[i].IsSentinel() {
			s.State.Queue[i] = sentinelEntry()
		}
	}
}

// sentinelEntry builds a limit-barrier turn. The same card fills all
// three slots so both selection modes render it.
func sentinelEntry() TurnEntry {
	c := &Card{
		ItemID:      "limit-" + uuid.NewString(),
		DisplayText: limitReachedText,
		Intensity:   1,
	}
	return TurnEntry{
		PrimaryIdx:   -1,
		SecondaryIdx: -1,
		Card:         c,
		TruthCard:    c,
		DareCard:     c,
		Status:       StatusLimitReached,
	}
}

// nextStep returns the monotonic step for the next generated turn: one
// past the newest real queued entry, or one past the last committed
// step when the queue holds no real content.
func nextStep(s *Session) int {
	for i := len(s.State.Queue) - 1; i >= 0; i-- {
		if !s.State.Queue[i].IsSentinel() {
			return s.State.Queue[i].Step + 1
		}
	}
	return s.State.Step + 1
}

// generateTurn produces one queued turn: rotation, profile resolution,
// pacing, candidate selection, validation and repair.
func (e *Engine) generateTurn(ctx context.Context, s *Session) (TurnEntry, error) {
	step := nextStep(s)
	eff := EffectiveStep(step, e.cfg.TargetLength)
	primary, secondary := s.Rotation(step)

	profA, profB := e.resolveProfiles(ctx, s.Players[primary], s.Players[secondary])
	rating := s.Settings.Rating()
	limits := profile.CombinedHardLimits(profA, profB)
	anatomy := e.availableAnatomy(s, profA, profB)
	exclude := s.ExclusionIDs()
	e.mergeRecentHistory(ctx, s.Players[primary].ID, exclude)

	slot := slotContext{
		session: s,
		step:    eff,
		rating:  rating,
		profA:   profA,
		profB:   profB,
		limits:  limits,
		anatomy: anatomy,
		exclude: exclude,
	}

	entry := TurnEntry{
		Step:         step,
		PrimaryIdx:   primary,
		SecondaryIdx: secondary,
		Phase:        pacing.PhaseName(eff, e.cfg.TargetLength),
	}
	secondaryName := s.Players[secondary].Name

	if s.Settings.SelectionMode == SelectionManual {
		truth, _, err := e.pickItem(ctx, slot, content.TypeTruth)
		if err != nil {
			return TurnEntry{}, err
		}
		entry.TruthCard = cardFrom(truth, secondaryName)
		exclude[truth.ID] = true

		if s.Settings.IncludeDare {
			dare, _, err := e.pickItem(ctx, slot, content.TypeDare)
			if err != nil {
				return TurnEntry{}, err
			}
			entry.DareCard = cardFrom(dare, secondaryName)
			exclude[dare.ID] = true
		}
		entry.Status = StatusWaitingForSelection
		return entry, nil
	}

	forced := content.Type("")
	if !s.Settings.IncludeDare {
		forced = content.TypeTruth
	}
	typ := pacing.PickType(eff, e.cfg.TargetLength, s.State.TruthsSoFar, s.State.DaresSoFar, forced)

	item, _, err := e.pickItem(ctx, slot, typ)
	if err != nil {
		return TurnEntry{}, err
	}
	entry.Card = cardFrom(item, secondaryName)
	entry.Status = StatusShowCard

	if item.Type == content.TypeDare {
		s.State.DaresSoFar++
	} else {
		s.State.TruthsSoFar++
	}
	return entry, nil
}

// slotContext is the shared per-turn context for one or two card
// picks.
type slotContext struct {
	session *Session
	step    int
	rating  content.Rating
	profA   *profile.Profile
	profB   *profile.Profile
	limits  map[string]bool
	anatomy map[string]bool
	exclude map[string]bool
}

// pickItem selects a validated item for the slot, falling back to the
// repair chain when selection comes up empty or invalid. It always
// returns an item; repaired reports whether the chain produced it.
func (e *Engine) pickItem(ctx context.Context, slot slotContext, typ content.Type) (item *content.Item, repaired bool, err error) {
	imin, imax := pacing.Window(slot.step, e.cfg.TargetLength, slot.rating)
	rules := validate.Rules{
		Rating:          slot.rating,
		TargetLength:    e.cfg.TargetLength,
		AvoidMaybeUntil: e.cfg.AvoidMaybeUntil,
	}

	var bd *scoring.Breakdown
	item, bd, err = e.picker.Pick(ctx, selector.Request{
		Type:         typ,
		Rating:       slot.rating,
		IntensityMin: imin,
		IntensityMax: imax,
		PlayerA:      slot.profA,
		PlayerB:      slot.profB,
		GroupMode:    slot.session.GroupMode(),
		HardLimits:   slot.limits,
		Anatomy:      slot.anatomy,
		ExcludeIDs:   slot.exclude,
		Position:     &scoring.Position{Step: slot.step, TargetLength: e.cfg.TargetLength},
		Randomize:    true,
	})
	if err != nil {
		slog.Error("candidate selection failed", "tag", "game", "session", slot.session.ID, "step", slot.step, "error", err)
	} else if item != nil {
		if ok, reason := validate.CheckItem(item, slot.step, rules); ok {
			if bd != nil {
				slog.Debug("turn item selected", "tag", "game",
					"session", slot.session.ID, "step", slot.step, "item", item.ID, "score", bd.Overall)
			}
			return item, false, nil
		} else {
			slog.Info("selected item failed validation", "tag", "game",
				"session", slot.session.ID, "step", slot.step, "item", item.ID, "reason", reason)
		}
	}

	scopes := []string{"couples", "all"}
	if slot.session.GroupMode() {
		scopes = []string{"groups", "all"}
	}
	pool, perr := e.bank.FindCandidates(ctx, content.Query{
		Type:             typ,
		Rating:           slot.rating,
		IntensityMin:     1,
		IntensityMax:     5,
		AudienceScopes:   scopes,
		ExcludeIDs:       slot.exclude,
		AnatomyAvailable: slot.anatomy,
		HardLimits:       slot.limits,
		Limit:            repairPoolSize,
	})
	if perr != nil {
		slog.Error("repair pool fetch failed", "tag", "game", "session", slot.session.ID, "step", slot.step, "error", perr)
	}

	replacement, tier := e.repairer.Repair(ctx, repair.Request{
		Step:          slot.step,
		Type:          typ,
		Rating:        slot.rating,
		IntensityMin:  imin,
		IntensityMax:  imax,
		Candidates:    pool,
		HardLimits:    slot.limits,
		UsedFallbacks: slot.session.State.UsedFallbacks,
	})
	slog.Info("turn item repaired", "tag", "game",
		"session", slot.session.ID, "step", slot.step, "item", replacement.ID, "tier", tier)
	return replacement, true, nil
}

// resolveProfiles produces a usable profile pair for scoring. Missing
// profiles are synthesized: from anatomy when a guest supplied one,
// complementarily from the partner's profile, or as a neutral default.
func (e *Engine) resolveProfiles(ctx context.Context, a, b Player) (*profile.Profile, *profile.Profile) {
	profA := e.lookupProfile(ctx, a)
	profB := e.lookupProfile(ctx, b)

	if profA == nil && profB != nil {
		profA = profile.Complementary(profB)
	}
	if profA == nil {
		profA = profile.Virtual(a.Anatomy)
	}
	if profB == nil {
		profB = profile.Complementary(profA)
	}
	return profA, profB
}

func (e *Engine) lookupProfile(ctx context.Context, p Player) *profile.Profile {
	if p.UserID != "" {
		prof, err := e.profiles.GetProfile(ctx, p.UserID)
		if err != nil {
			slog.Warn("profile lookup failed", "tag", "game", "user", p.UserID, "error", err)
		}
		if prof != nil {
			return prof
		}
	}
	if len(p.Anatomy) > 0 {
		return profile.Virtual(p.Anatomy)
	}
	return nil
}

// availableAnatomy unions the session participants' declared anatomy
// with what the active pair's profiles report.
func (e *Engine) availableAnatomy(s *Session, profA, profB *profile.Profile) map[string]bool {
	out := s.AnatomyAvailable()
	for _, p := range []*profile.Profile{profA, profB} {
		if p == nil {
			continue
		}
		for _, tag := range p.Anatomy.AnatomySelf {
			out[tag] = true
		}
	}
	return out
}

// mergeRecentHistory folds the primary player's recent plays into the
// exclusion set. History failures degrade to weaker repetition
// prevention rather than blocking the turn.
func (e *Engine) mergeRecentHistory(ctx context.Context, playerID string, exclude map[string]bool) {
	ids, err := e.history.RecentItemIDs(ctx, playerID, e.cfg.PlayerHistoryWindow)
	if err != nil {
		slog.Warn("player history lookup failed", "tag", "game", "player", playerID, "error", err)
		return
	}
	for _, id := range ids {
		exclude[id] = true
	}
}

// cardFrom flattens an item into its deliverable card, resolving the
// partner placeholder in the display text.
func cardFrom(item *content.Item, secondaryName string) *Card {
	text := ""
	if len(item.Script.Steps) > 0 {
		text = ResolveText(item.Script.Steps[0].Do, secondaryName)
	}
	return &Card{
		ItemID:            item.ID,
		Type:              item.Type,
		DisplayText:       text,
		Intensity:         item.Intensity,
		NeedsRegeneration: item.NeedsRegeneration,
	}
}

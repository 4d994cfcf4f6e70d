package calendarsync

import (
	"context"
	"time"

	"github.com/google/uuid"
	calendarevent "github.com/saulo-duarte/chronos-calendar-sync/internal/calendar_event"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/config"
	googlecalendar "github.com/saulo-duarte/chronos-calendar-sync/internal/google_calendar"
	"github.com/saulo-duarte/chronos-calendar-sync/internal/token"
	util "github.com/saulo-duarte/chronos-calendar-sync/internal/utils"
	"github.com/sirupsen/logrus"
)

type SyncRequest struct {
	UserID  string
	TimeMin string
	TimeMax string
}

// SyncService reconciles one user's system calendar with their primary
// Google calendar. Every pass is a single sweep with no retries; callers
// must not run two passes for the same user at once.
//
// A fatal error normally comes with a nil summary. TwoWay is the exception:
// when its pull half aborts it returns the completed push summary together
// with the error, so callers must check both.
type SyncService interface {
	Push(ctx context.Context, req SyncRequest) (*SyncSummary, error)
	Pull(ctx context.Context, req SyncRequest) (*PullSummary, error)
	TwoWay(ctx context.Context, req SyncRequest) (*TwoWaySummary, error)
}

type syncService struct {
	events    calendarevent.CalendarEventRepository
	tokens    token.TokenManager
	calendar  googlecalendar.CalendarService
	windows   *WindowResolver
	tolerance time.Duration
	now       func() time.Time
}

func NewService(
	events calendarevent.CalendarEventRepository,
	tokens token.TokenManager,
	calendar googlecalendar.CalendarService,
	settings config.SyncSettings,
) SyncService {
	return &syncService{
		events:    events,
		tokens:    tokens,
		calendar:  calendar,
		windows:   NewWindowResolver(settings.WindowDays),
		tolerance: settings.ConflictTolerance,
		now:       time.Now,
	}
}

// pass is the state shared by the directions of one invocation.
type pass struct {
	userID      string
	accessToken string
	window      Window
	local       []calendarevent.CalendarEvent
}

func (s *syncService) Push(ctx context.Context, req SyncRequest) (*SyncSummary, error) {
	ctx = config.ContextWithFields(ctx, logrus.Fields{"user_id": req.UserID, "direction": "push"})
	log := config.WithContext(ctx)

	p, err := s.begin(ctx, req)
	if err != nil {
		log.WithError(err).Error("Push aborted")
		return nil, err
	}

	summary, err := s.push(ctx, p)
	if err != nil {
		log.WithError(err).Error("Push aborted")
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"created": summary.Created,
		"updated": summary.Updated,
		"skipped": summary.Skipped,
		"deleted": summary.Deleted,
		"failed":  summary.Failed,
	}).Info("Push finished")
	return summary, nil
}

func (s *syncService) Pull(ctx context.Context, req SyncRequest) (*PullSummary, error) {
	ctx = config.ContextWithFields(ctx, logrus.Fields{"user_id": req.UserID, "direction": "pull"})
	log := config.WithContext(ctx)

	p, err := s.begin(ctx, req)
	if err != nil {
		log.WithError(err).Error("Pull aborted")
		return nil, err
	}

	summary, err := s.pull(ctx, p)
	if err != nil {
		log.WithError(err).Error("Pull aborted")
		return nil, err
	}

	logPull(log, summary)
	return summary, nil
}

// TwoWay resolves the window once, then pushes and pulls over it. A remote
// edit landing between the two halves is picked up by the next pass. When
// the pull half aborts the push summary is still returned with the error.
func (s *syncService) TwoWay(ctx context.Context, req SyncRequest) (*TwoWaySummary, error) {
	ctx = config.ContextWithFields(ctx, logrus.Fields{"user_id": req.UserID, "direction": "two_way"})
	log := config.WithContext(ctx)

	p, err := s.begin(ctx, req)
	if err != nil {
		log.WithError(err).Error("Two-way sync aborted")
		return nil, err
	}

	pushed, err := s.push(ctx, p)
	if err != nil {
		log.WithError(err).Error("Two-way sync aborted during push")
		return nil, err
	}
	out := &TwoWaySummary{Push: pushed}

	// Push may have linked rows; pull must see the fresh state.
	local, err := s.events.List(ctx, p.userID, &p.window.TimeMin, &p.window.TimeMax)
	if err != nil {
		log.WithError(err).Error("Two-way sync aborted before pull")
		return out, fail(StageLoadLocal, err)
	}
	p.local = local

	pulled, err := s.pull(ctx, p)
	if err != nil {
		log.WithError(err).Error("Two-way sync aborted during pull")
		return out, err
	}
	out.Pull = pulled

	log.WithFields(logrus.Fields{
		"created": pushed.Created,
		"updated": pushed.Updated,
		"pulled":  pulled.Pulled,
		"deleted": pushed.Deleted + pulled.Deleted,
		"failed":  pushed.Failed + pulled.Failed,
	}).Info("Two-way sync finished")
	return out, nil
}

// begin authorizes the user, loads local events within the caller's bounds
// and resolves the window. Nothing has been written when it fails.
func (s *syncService) begin(ctx context.Context, req SyncRequest) (*pass, error) {
	if req.UserID == "" {
		return nil, fail(StageValidate, ErrMissingUserID)
	}

	tok, err := s.tokens.EnsureValidToken(ctx, req.UserID)
	if err != nil {
		return nil, fail(StageAuthorize, err)
	}
	if tok.AccessToken == "" {
		return nil, fail(StageAuthorize, token.ErrReauthorizationRequired)
	}

	lo, _ := util.ParseInstant(req.TimeMin)
	hi, _ := util.ParseInstant(req.TimeMax)

	local, err := s.events.List(ctx, req.UserID, util.ToTimePtr(lo), util.ToTimePtr(hi))
	if err != nil {
		return nil, fail(StageLoadLocal, err)
	}

	w := s.windows.Resolve(local, req.TimeMin, req.TimeMax)
	config.WithContext(ctx).Debugf("Resolved sync window %s to %s", w.TimeMin.Format(time.RFC3339), w.TimeMax.Format(time.RFC3339))

	return &pass{
		userID:      req.UserID,
		accessToken: tok.AccessToken,
		window:      w,
		local:       local,
	}, nil
}

// remoteSnapshot is the remote side of one pass. The listing is padded by a
// day on both ends because Google places all-day events by the calendar's
// own time zone while the window reads their dates as UTC midnight. byID
// holds everything listed; inWindow keeps the events the window contains
// under the same rule local rows follow.
type remoteSnapshot struct {
	byID     map[string]googlecalendar.RemoteEvent
	inWindow []googlecalendar.RemoteEvent
}

func (s *syncService) listRemote(ctx context.Context, p *pass) (*remoteSnapshot, error) {
	listed, err := s.calendar.List(ctx, p.accessToken, p.window.TimeMin.Add(-oneDay), p.window.TimeMax.Add(oneDay))
	if err != nil {
		return nil, fail(StageListRemote, err)
	}

	snap := &remoteSnapshot{byID: make(map[string]googlecalendar.RemoteEvent, len(listed))}
	for _, r := range listed {
		snap.byID[r.ID] = r
		if p.window.ContainsRemote(r) {
			snap.inWindow = append(snap.inWindow, r)
		}
	}
	return snap, nil
}

// lookupRemote finds the remote copy of a linked row. Rows missing from the
// listing are fetched by id, so an event moved far outside the window is
// still found. A nil event with a nil error means the copy is gone.
func (s *syncService) lookupRemote(ctx context.Context, p *pass, snap *remoteSnapshot, remoteID string) (*googlecalendar.RemoteEvent, error) {
	if r, ok := snap.byID[remoteID]; ok {
		return &r, nil
	}
	r, err := s.calendar.Get(ctx, p.accessToken, remoteID)
	if err != nil {
		return nil, err
	}
	if r != nil {
		snap.byID[r.ID] = *r
	}
	return r, nil
}

func (s *syncService) push(ctx context.Context, p *pass) (*SyncSummary, error) {
	log := config.WithContext(ctx)
	summary := &SyncSummary{Window: p.window}

	snap, err := s.listRemote(ctx, p)
	if err != nil {
		return nil, err
	}

	// local id -> remote id it is linked to once this loop is done
	linked := make(map[string]string)

	for i := range p.local {
		ev := &p.local[i]
		if !p.window.Contains(ev) {
			continue
		}
		fields := logrus.Fields{"calendar_event_id": ev.ID}

		if ev.IsLinked() {
			fields["remote_event_id"] = *ev.RemoteEventID
			r, err := s.lookupRemote(ctx, p, snap, *ev.RemoteEventID)
			if err != nil {
				log.WithError(err).WithFields(fields).Warn("Failed to look up Google event")
				summary.Failed++
				continue
			}
			if r != nil {
				linked[ev.ID] = r.ID
				if !s.newer(ev.UpdatedAt, r.Updated) {
					summary.Skipped++
					continue
				}
				if _, err := s.calendar.Update(ctx, p.accessToken, r.ID, toRemote(ev)); err != nil {
					log.WithError(err).WithFields(fields).Warn("Failed to update Google event")
					summary.Failed++
					continue
				}
				summary.Updated++
				continue
			}
			log.WithFields(fields).Debug("Linked Google event is gone, recreating it")
		}

		created, err := s.calendar.Create(ctx, p.accessToken, toRemote(ev))
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("Failed to create Google event")
			summary.Failed++
			continue
		}

		remoteID := created.ID
		ev.RemoteEventID = &remoteID
		linked[ev.ID] = remoteID
		fields["remote_event_id"] = remoteID

		if _, err := s.events.Upsert(ctx, []calendarevent.CalendarEvent{*ev}); err != nil {
			// The next push removes the unreferenced copy as a duplicate.
			log.WithError(err).WithFields(fields).Error("Created Google event but failed to store its id")
			summary.Failed++
			continue
		}
		summary.Created++
	}

	s.deleteRemoteOrphans(ctx, p, snap.inWindow, linked, summary)
	return summary, nil
}

// deleteRemoteOrphans removes remote events whose back-referenced local row
// no longer exists, plus duplicates pointing at a row linked elsewhere.
// Existence is checked against the store, not just the window.
func (s *syncService) deleteRemoteOrphans(
	ctx context.Context,
	p *pass,
	remote []googlecalendar.RemoteEvent,
	linked map[string]string,
	summary *SyncSummary,
) {
	log := config.WithContext(ctx)

	var doomed, unresolved []googlecalendar.RemoteEvent
	lookup := make(map[string]struct{})
	for _, r := range remote {
		if r.BackRef == nil {
			continue
		}
		localID := r.BackRef.CalendarEventID
		if linkedTo, ok := linked[localID]; ok {
			if linkedTo != r.ID {
				doomed = append(doomed, r)
			}
			continue
		}
		unresolved = append(unresolved, r)
		lookup[localID] = struct{}{}
	}

	if len(unresolved) > 0 {
		ids := make([]string, 0, len(lookup))
		for id := range lookup {
			ids = append(ids, id)
		}

		found, err := s.events.FindByIDs(ctx, p.userID, ids)
		if err != nil {
			log.WithError(err).Warnf("Skipping orphan check for %d Google events", len(unresolved))
		} else {
			exists := make(map[string]struct{}, len(found))
			for _, ev := range found {
				exists[ev.ID] = struct{}{}
			}
			for _, r := range unresolved {
				if _, ok := exists[r.BackRef.CalendarEventID]; !ok {
					doomed = append(doomed, r)
				}
			}
		}
	}

	for _, r := range doomed {
		fields := logrus.Fields{"remote_event_id": r.ID, "calendar_event_id": r.BackRef.CalendarEventID}
		if err := s.calendar.Delete(ctx, p.accessToken, r.ID); err != nil {
			log.WithError(err).WithFields(fields).Warn("Failed to delete orphaned Google event")
			summary.Failed++
			continue
		}
		log.WithFields(fields).Debug("Deleted orphaned Google event")
		summary.Deleted++
	}
}

func (s *syncService) pull(ctx context.Context, p *pass) (*PullSummary, error) {
	log := config.WithContext(ctx)
	summary := &PullSummary{Window: p.window}

	snap, err := s.listRemote(ctx, p)
	if err != nil {
		return nil, err
	}

	byID, byRemoteID, err := s.matchLocal(ctx, p, snap.inWindow)
	if err != nil {
		return nil, fail(StageMatchLocal, err)
	}

	handled := make(map[string]struct{}, len(snap.inWindow))
	now := s.now().UTC()
	for _, r := range snap.inWindow {
		handled[r.ID] = struct{}{}
		fields := logrus.Fields{"remote_event_id": r.ID}

		var existing *calendarevent.CalendarEvent
		if r.BackRef != nil {
			fields["calendar_event_id"] = r.BackRef.CalendarEventID
			existing = byID[r.BackRef.CalendarEventID]
			if existing == nil {
				// Left for the next push to delete remotely.
				log.WithFields(fields).Debug("Google event points at a deleted system event")
				summary.Skipped++
				continue
			}
			if other := remoteID(existing); other != "" && other != r.ID {
				if _, ok := snap.byID[other]; ok {
					log.WithFields(fields).Debug("Skipping duplicate Google event")
					summary.Skipped++
					continue
				}
			}
		} else {
			existing = byRemoteID[r.ID]
		}

		s.importRemote(ctx, p, existing, r, now, fields, summary)
	}

	// Linked rows whose remote copy was not handled above either moved out of
	// the window or are gone. Only a confirmed absence deletes the row.
	for i := range p.local {
		ev := &p.local[i]
		if !ev.IsLinked() || !p.window.Contains(ev) {
			continue
		}
		if _, ok := handled[*ev.RemoteEventID]; ok {
			continue
		}

		fields := logrus.Fields{"calendar_event_id": ev.ID, "remote_event_id": *ev.RemoteEventID}
		r, err := s.lookupRemote(ctx, p, snap, *ev.RemoteEventID)
		if err != nil {
			log.WithError(err).WithFields(fields).Warn("Failed to look up Google event")
			summary.Failed++
			continue
		}
		if r != nil {
			s.importRemote(ctx, p, ev, *r, now, fields, summary)
			continue
		}

		if err := s.events.Delete(ctx, p.userID, []string{ev.ID}); err != nil {
			log.WithError(err).WithFields(fields).Warn("Failed to delete orphaned system event")
			summary.Failed++
			continue
		}
		log.WithFields(fields).Debug("Deleted system event removed from Google")
		summary.Deleted++
	}

	return summary, nil
}

// importRemote writes r onto existing, or onto a new row when existing is
// nil, unless the local side is newer or already matches.
func (s *syncService) importRemote(
	ctx context.Context,
	p *pass,
	existing *calendarevent.CalendarEvent,
	r googlecalendar.RemoteEvent,
	now time.Time,
	fields logrus.Fields,
	summary *PullSummary,
) {
	log := config.WithContext(ctx)

	var row calendarevent.CalendarEvent
	if existing != nil {
		if s.newer(existing.UpdatedAt, r.Updated) {
			summary.Skipped++
			return
		}
		row = *existing
	} else {
		row = calendarevent.CalendarEvent{
			ID:     uuid.NewString(),
			UserID: p.userID,
			Source: calendarevent.SourceGoogle,
		}
	}

	if err := applyRemote(&row, r, now); err != nil {
		log.WithError(err).WithFields(fields).Warn("Failed to read Google event")
		summary.Failed++
		return
	}
	if existing != nil && sameContent(existing, &row) {
		summary.Skipped++
		return
	}

	if _, err := s.events.Upsert(ctx, []calendarevent.CalendarEvent{row}); err != nil {
		log.WithError(err).WithFields(fields).Warn("Failed to store Google event")
		summary.Failed++
		return
	}
	if existing != nil {
		*existing = row
	}
	summary.Pulled++
}

// matchLocal indexes local rows by id and by remote id. It starts from the
// events already loaded and fetches the rest of the referenced rows, which
// may sit outside the window. Index values point into p.local where
// possible so later writes are visible to the orphan sweep.
func (s *syncService) matchLocal(
	ctx context.Context,
	p *pass,
	remote []googlecalendar.RemoteEvent,
) (map[string]*calendarevent.CalendarEvent, map[string]*calendarevent.CalendarEvent, error) {
	byID := make(map[string]*calendarevent.CalendarEvent, len(p.local))
	byRemoteID := make(map[string]*calendarevent.CalendarEvent, len(p.local))
	index := func(ev *calendarevent.CalendarEvent) {
		byID[ev.ID] = ev
		if ev.IsLinked() {
			byRemoteID[*ev.RemoteEventID] = ev
		}
	}
	for i := range p.local {
		index(&p.local[i])
	}

	var ids, remoteIDs []string
	for _, r := range remote {
		if r.BackRef != nil {
			if _, ok := byID[r.BackRef.CalendarEventID]; !ok {
				ids = append(ids, r.BackRef.CalendarEventID)
			}
			continue
		}
		if _, ok := byRemoteID[r.ID]; !ok {
			remoteIDs = append(remoteIDs, r.ID)
		}
	}

	byIDs, err := s.events.FindByIDs(ctx, p.userID, ids)
	if err != nil {
		return nil, nil, err
	}
	byRemote, err := s.events.FindByRemoteIDs(ctx, p.userID, remoteIDs)
	if err != nil {
		return nil, nil, err
	}

	for _, batch := range [][]calendarevent.CalendarEvent{byIDs, byRemote} {
		for i := range batch {
			if _, ok := byID[batch[i].ID]; ok {
				continue
			}
			index(&batch[i])
		}
	}
	return byID, byRemoteID, nil
}

// newer reports whether a is later than b by more than the tolerance.
func (s *syncService) newer(a, b time.Time) bool {
	return a.After(b.Add(s.tolerance))
}

func logPull(log *logrus.Entry, summary *PullSummary) {
	log.WithFields(logrus.Fields{
		"pulled":  summary.Pulled,
		"skipped": summary.Skipped,
		"deleted": summary.Deleted,
		"failed":  summary.Failed,
	}).Info("Pull finished")
}

// Package album implements the client side of the family album: one Session
// per signed-in client holding the cached collections and the navigation
// state, plus the handlers that change them and write to the document store.
package album

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmynk/familyalbum/internal/auth"
	"github.com/mmynk/familyalbum/internal/docstore"
	"github.com/mmynk/familyalbum/internal/models"
)

// Screen is the current navigation location.
type Screen string

const (
	ScreenHome   Screen = "home"
	ScreenEvents Screen = "events"
	ScreenAlbum  Screen = "album"
)

// RecoveryKind selects which credential the recovery flow resets.
type RecoveryKind string

const (
	RecoverPassword RecoveryKind = "password"
	RecoverUsername RecoveryKind = "username"
)

// RecoveryStep is the current step of the recovery flow.
type RecoveryStep string

const (
	StepPhone  RecoveryStep = "phone"
	StepVerify RecoveryStep = "verify"
	StepReset  RecoveryStep = "reset"
)

// Recovery is the state of the credential recovery flow.
type Recovery struct {
	Kind  RecoveryKind
	Step  RecoveryStep
	Phone string
}

const defaultCode = "1234"

// Option configures a Session.
type Option func(*Session)

// WithPasscode sets the shared passcode for locked groups.
func WithPasscode(code string) Option {
	return func(s *Session) {
		if code != "" {
			s.passcode = code
		}
	}
}

// WithVerificationCode sets the code accepted by the recovery flow.
func WithVerificationCode(code string) Option {
	return func(s *Session) {
		if code != "" {
			s.verificationCode = code
		}
	}
}

// Session is the state of one album client.
//
// Handlers update the cached collections first and then write to the store;
// the next snapshot pushed by the store replaces the cache. A failed write
// is returned as a *WriteError and the cached change is kept.
// The session lock is never held across a store call.
type Session struct {
	store            docstore.Store
	authn            *auth.PasswordAuthenticator
	passcode         string
	verificationCode string

	mu          sync.Mutex
	user        *models.User
	screen      Screen
	groupID     string
	eventID     string
	eventsTab   EventsTab
	albumTab    AlbumTab
	pendingLock string
	recovery    Recovery

	users  []models.User
	groups []models.Group
	events []models.Event
	photos []models.Photo

	unsubs []func()
}

// NewSession creates a signed-out session on the home screen.
func NewSession(store docstore.Store, opts ...Option) *Session {
	s := &Session{
		store:            store,
		passcode:         defaultCode,
		verificationCode: defaultCode,
		screen:           ScreenHome,
		eventsTab:        EventsAll,
		albumTab:         AlbumAll,
		recovery:         Recovery{Kind: RecoverPassword, Step: StepPhone},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.authn = auth.NewPasswordAuthenticator(directory{s})
	return s
}

// Start subscribes to the four collections. Each snapshot replaces the
// matching cached collection.
func (s *Session) Start(ctx context.Context) error {
	subs := []func(context.Context) (func(), error){
		func(ctx context.Context) (func(), error) {
			return watch(ctx, s.store, docstore.Users, func(v []models.User) {
				s.mu.Lock()
				s.users = v
				s.mu.Unlock()
			})
		},
		func(ctx context.Context) (func(), error) {
			return watch(ctx, s.store, docstore.Groups, func(v []models.Group) {
				s.mu.Lock()
				s.groups = v
				s.mu.Unlock()
			})
		},
		func(ctx context.Context) (func(), error) {
			return watch(ctx, s.store, docstore.Events, func(v []models.Event) {
				s.mu.Lock()
				s.events = v
				s.mu.Unlock()
			})
		},
		func(ctx context.Context) (func(), error) {
			return watch(ctx, s.store, docstore.Photos, func(v []models.Photo) {
				s.mu.Lock()
				s.photos = v
				s.mu.Unlock()
			})
		},
	}

	var unsubs []func()
	for _, sub := range subs {
		unsub, err := sub(ctx)
		if err != nil {
			for _, u := range unsubs {
				u()
			}
			return err
		}
		unsubs = append(unsubs, unsub)
	}

	s.mu.Lock()
	s.unsubs = append(s.unsubs, unsubs...)
	s.mu.Unlock()
	return nil
}

// Close ends every subscription opened by Start.
func (s *Session) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

func watch[T any, PT interface {
	*T
	models.Keyed
}](ctx context.Context, store docstore.Store, collection string, apply func([]T)) (func(), error) {
	return store.Subscribe(ctx, collection, func(snap docstore.Snapshot) {
		docs, err := docstore.Decode[T, PT](snap)
		if err != nil {
			slog.Warn("Dropping undecodable snapshot", "collection", collection, "error", err)
			return
		}
		apply(docs)
	})
}

// Authentication

// Login signs in the user whose username and password match.
func (s *Session) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.authn.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	slog.Info("User logged in", "user_id", user.ID)
	return user, nil
}

// Register creates a user. It does not sign the user in.
func (s *Session) Register(ctx context.Context, reg auth.Registration) (*models.User, error) {
	return s.authn.Register(ctx, reg)
}

// Logout signs out and returns to the home screen.
func (s *Session) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.screen = ScreenHome
	s.groupID = ""
	s.eventID = ""
	s.pendingLock = ""
	s.eventsTab = EventsAll
	s.albumTab = AlbumAll
}

// StartRecovery resets the recovery flow to the phone step for kind.
func (s *Session) StartRecovery(kind RecoveryKind) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recovery = Recovery{Kind: kind, Step: StepPhone}
}

// SendVerificationCode looks up the user by phone number and advances to the
// verify step. No message is delivered; the returned notice carries the code.
func (s *Session) SendVerificationCode(phone string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recovery.Step != StepPhone {
		return "", ErrRecoveryStep
	}
	if s.userByPhoneLocked(phone) == nil {
		return "", ErrPhoneNotFound
	}
	s.recovery.Phone = phone
	s.recovery.Step = StepVerify
	return noticeCodeSent + s.verificationCode, nil
}

// VerifyCode checks the verification code and advances to the reset step.
func (s *Session) VerifyCode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.recovery.Step != StepVerify {
		return ErrRecoveryStep
	}
	if code != s.verificationCode {
		return ErrWrongVerificationCode
	}
	s.recovery.Step = StepReset
	return nil
}

// ResetCredential sets the new password or username of the recovering user
// and writes the user record. confirm is only checked for passwords.
func (s *Session) ResetCredential(ctx context.Context, value, confirm string) error {
	s.mu.Lock()
	if s.recovery.Step != StepReset {
		s.mu.Unlock()
		return ErrRecoveryStep
	}
	kind := s.recovery.Kind
	if value == "" {
		s.mu.Unlock()
		return ErrRequiredField
	}
	if kind == RecoverPassword && value != confirm {
		s.mu.Unlock()
		return auth.ErrPasswordMismatch
	}
	found := s.userByPhoneLocked(s.recovery.Phone)
	if found == nil {
		s.mu.Unlock()
		return ErrPhoneNotFound
	}
	user := *found
	if kind == RecoverUsername {
		if other := s.userByNameLocked(value); other != nil && other.ID != user.ID {
			s.mu.Unlock()
			return auth.ErrUsernameTaken
		}
	}
	s.mu.Unlock()

	if kind == RecoverPassword {
		hashed, err := auth.HashPassword(value)
		if err != nil {
			return err
		}
		user.Password = hashed
	} else {
		user.Username = value
	}

	s.mu.Lock()
	s.users = upsert(s.users, user, userKey)
	s.recovery = Recovery{Kind: kind, Step: StepPhone}
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Users, user.ID, user); err != nil {
		return writeErr(OpResetCred, err)
	}
	slog.Info("Credential reset", "user_id", user.ID, "kind", kind)
	return nil
}

// Groups

// CreateGroup creates an unlocked group with the current user as its only
// member. An empty avatar gets the default picture.
func (s *Session) CreateGroup(ctx context.Context, name, avatar string) (*models.Group, error) {
	uid, err := s.userID()
	if err != nil {
		return nil, err
	}
	if name == "" {
		return nil, ErrRequiredField
	}
	if avatar == "" {
		avatar = models.DefaultPicture
	}

	g := models.Group{
		ID:           docstore.NewKey(),
		Name:         name,
		Avatar:       avatar,
		LastActivity: "Just created",
		Members:      []string{uid},
	}

	s.mu.Lock()
	s.groups = upsert(s.groups, g, groupKey)
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Groups, g.ID, g); err != nil {
		return &g, writeErr(OpCreateGroup, err)
	}
	slog.Info("Group created", "group_id", g.ID, "user_id", uid)
	return &g, nil
}

// DeleteGroup removes a group. Its events are kept.
func (s *Session) DeleteGroup(ctx context.Context, groupID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}

	s.mu.Lock()
	s.groups = remove(s.groups, groupID, groupKey)
	if s.groupID == groupID {
		s.groupID = ""
		s.eventID = ""
		s.screen = ScreenHome
	}
	if s.pendingLock == groupID {
		s.pendingLock = ""
	}
	s.mu.Unlock()

	if err := s.store.Remove(ctx, docstore.Groups, groupID); err != nil {
		return writeErr(OpDeleteGroup, err)
	}
	slog.Info("Group deleted", "group_id", groupID)
	return nil
}

// ToggleLock flips the lock of a group the current user is a member of.
func (s *Session) ToggleLock(ctx context.Context, groupID string) (*models.Group, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	found := s.groupLocked(groupID)
	if found == nil || !IsGroupMember(found, s.user.ID) {
		s.mu.Unlock()
		return nil, ErrLockMembersOnly
	}
	g := *found
	g.IsLocked = !g.IsLocked
	s.groups = upsert(s.groups, g, groupKey)
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Groups, g.ID, g); err != nil {
		return &g, writeErr(OpToggleLock, err)
	}
	slog.Info("Group lock toggled", "group_id", g.ID, "locked", g.IsLocked)
	return &g, nil
}

// SelectGroup opens the events screen of an accessible group. For a locked
// group the current user cannot access, the group becomes the pending
// passcode prompt and ErrPasscodeRequired is returned.
func (s *Session) SelectGroup(groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return ErrNotLoggedIn
	}
	g := s.groupLocked(groupID)
	if g == nil {
		return ErrGroupNotFound
	}
	if !CanAccessGroup(g, s.user.ID) {
		s.pendingLock = groupID
		return ErrPasscodeRequired
	}
	s.openGroupLocked(groupID)
	return nil
}

// SubmitPasscode answers the pending passcode prompt. The right passcode is
// not enough: the user must also be a member. The prompt is cleared in every
// case.
func (s *Session) SubmitPasscode(code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingLock
	s.pendingLock = ""

	if s.user == nil {
		return ErrNotLoggedIn
	}
	if pending == "" {
		return ErrNoPendingGroup
	}
	if code != s.passcode {
		return ErrWrongPasscode
	}
	g := s.groupLocked(pending)
	if g == nil {
		return ErrGroupNotFound
	}
	if !IsGroupMember(g, s.user.ID) {
		return ErrNotGroupMember
	}
	s.openGroupLocked(pending)
	return nil
}

// CancelPasscode closes the passcode prompt.
func (s *Session) CancelPasscode() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingLock = ""
}

// PendingGroup returns the group awaiting a passcode, if any.
func (s *Session) PendingGroup() (models.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.groupLocked(s.pendingLock); g != nil {
		return *g, true
	}
	return models.Group{}, false
}

func (s *Session) openGroupLocked(groupID string) {
	s.groupID = groupID
	s.eventID = ""
	s.eventsTab = EventsAll
	s.screen = ScreenEvents
}

// Navigation

// SelectEvent opens the album of an event of the open group. It is only
// reachable from the events screen of a group the user can access.
func (s *Session) SelectEvent(eventID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return ErrNotLoggedIn
	}
	if s.screen != ScreenEvents {
		return ErrNoGroupSelected
	}
	if err := s.groupAccessLocked(); err != nil {
		return err
	}
	e := s.eventLocked(eventID)
	if e == nil || !inGroup(e, s.groupID) {
		return ErrEventNotFound
	}
	s.eventID = eventID
	s.albumTab = AlbumAll
	s.screen = ScreenAlbum
	return nil
}

// BackFromEvents clears the group selection and returns home.
func (s *Session) BackFromEvents() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groupID = ""
	s.eventID = ""
	s.screen = ScreenHome
}

// BackFromAlbum clears the event selection and returns to the events screen.
func (s *Session) BackFromAlbum() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventID = ""
	s.screen = ScreenEvents
}

// SetEventsTab changes the events filter.
func (s *Session) SetEventsTab(tab EventsTab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eventsTab = tab
}

// SetAlbumTab changes the photo filter.
func (s *Session) SetAlbumTab(tab AlbumTab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.albumTab = tab
}

// Events

// CreateEvent creates an event with the current user as creator and only
// member. Inside a selected group the event belongs to the group and the
// group's counters are updated.
func (s *Session) CreateEvent(ctx context.Context, title, date string) (*models.Event, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, ErrNotLoggedIn
	}
	if title == "" || date == "" {
		s.mu.Unlock()
		return nil, ErrRequiredField
	}
	if s.groupID != "" {
		if err := s.groupAccessLocked(); err != nil {
			s.mu.Unlock()
			return nil, err
		}
	}
	uid := s.user.ID
	e := models.Event{
		ID:        docstore.NewKey(),
		Title:     title,
		Date:      date,
		Image:     models.DefaultEventImage,
		Members:   1,
		CreatedBy: uid,
		MemberIDs: []string{uid},
		GroupID:   s.groupID,
	}
	s.events = upsert(s.events, e, eventKey)

	var group *models.Group
	if g := s.groupLocked(e.GroupID); g != nil {
		updated := *g
		updated.EventsCount++
		updated.LastActivity = title
		s.groups = upsert(s.groups, updated, groupKey)
		group = &updated
	}
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Events, e.ID, e); err != nil {
		return &e, writeErr(OpCreateEvent, err)
	}
	slog.Info("Event created", "event_id", e.ID, "group_id", e.GroupID, "user_id", uid)

	if group != nil {
		if err := s.store.Set(ctx, docstore.Groups, group.ID, *group); err != nil {
			return &e, writeErr(OpUpdateCounter, err)
		}
	}
	return &e, nil
}

// DeleteEvent removes an event. Its photos are kept. The owning group's
// event count is decremented.
func (s *Session) DeleteEvent(ctx context.Context, eventID string) error {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return ErrNotLoggedIn
	}
	var group *models.Group
	if e := s.eventLocked(eventID); e != nil {
		if g := s.groupLocked(e.GroupID); g != nil {
			updated := *g
			updated.EventsCount = max(updated.EventsCount-1, 0)
			s.groups = upsert(s.groups, updated, groupKey)
			group = &updated
		}
	}
	s.events = remove(s.events, eventID, eventKey)
	if s.eventID == eventID {
		s.eventID = ""
		if s.screen == ScreenAlbum {
			s.screen = ScreenEvents
		}
	}
	s.mu.Unlock()

	if err := s.store.Remove(ctx, docstore.Events, eventID); err != nil {
		return writeErr(OpDeleteEvent, err)
	}
	slog.Info("Event deleted", "event_id", eventID)

	if group != nil {
		if err := s.store.Set(ctx, docstore.Groups, group.ID, *group); err != nil {
			return writeErr(OpUpdateCounter, err)
		}
	}
	return nil
}

// AddEventMember adds the user with username to the selected event.
func (s *Session) AddEventMember(ctx context.Context, username string) (*models.Event, error) {
	if username == "" {
		return nil, ErrRequiredField
	}

	s.mu.Lock()
	cur, err := s.selectedEventLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	member := s.userByNameLocked(username)
	if member == nil {
		s.mu.Unlock()
		return nil, ErrUserNotFound
	}
	if cur.HasMember(member.ID) {
		s.mu.Unlock()
		return nil, ErrAlreadyMember
	}
	e := *cur
	e.MemberIDs = append(slices.Clone(e.MemberIDs), member.ID)
	e.Members = len(e.MemberIDs)
	s.events = upsert(s.events, e, eventKey)
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Events, e.ID, e); err != nil {
		return &e, writeErr(OpAddMember, err)
	}
	slog.Info("Event member added", "event_id", e.ID, "user_id", member.ID)
	return &e, nil
}

// RemoveEventMember removes userID from the selected event.
func (s *Session) RemoveEventMember(ctx context.Context, userID string) (*models.Event, error) {
	s.mu.Lock()
	cur, err := s.selectedEventLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if !cur.HasMember(userID) {
		s.mu.Unlock()
		return nil, ErrNotEventMember
	}
	e := *cur
	e.MemberIDs = slices.DeleteFunc(slices.Clone(e.MemberIDs), func(id string) bool { return id == userID })
	e.Members = len(e.MemberIDs)
	s.events = upsert(s.events, e, eventKey)
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Events, e.ID, e); err != nil {
		return &e, writeErr(OpRemoveMember, err)
	}
	slog.Info("Event member removed", "event_id", e.ID, "user_id", userID)
	return &e, nil
}

// Photos

// AddPhoto adds already encoded image data to the selected event.
func (s *Session) AddPhoto(ctx context.Context, imageData string) (*models.Photo, error) {
	s.mu.Lock()
	cur, err := s.selectedEventLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if imageData == "" {
		s.mu.Unlock()
		return nil, ErrRequiredField
	}
	p := models.Photo{
		ID:      docstore.NewKey(),
		URL:     imageData,
		EventID: cur.ID,
		AddedBy: s.user.ID,
	}
	s.photos = upsert(s.photos, p, photoKey)
	s.mu.Unlock()

	if err := s.store.Set(ctx, docstore.Photos, p.ID, p); err != nil {
		return &p, writeErr(OpAddPhoto, err)
	}
	slog.Info("Photo added", "photo_id", p.ID, "event_id", p.EventID)
	return &p, nil
}

// DeletePhoto removes a photo.
func (s *Session) DeletePhoto(ctx context.Context, photoID string) error {
	if _, err := s.userID(); err != nil {
		return err
	}

	s.mu.Lock()
	s.photos = remove(s.photos, photoID, photoKey)
	s.mu.Unlock()

	if err := s.store.Remove(ctx, docstore.Photos, photoID); err != nil {
		return writeErr(OpDeletePhoto, err)
	}
	slog.Info("Photo deleted", "photo_id", photoID)
	return nil
}

// Views

// CurrentUser returns the signed-in user.
func (s *Session) CurrentUser() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Screen returns the current navigation location.
func (s *Session) Screen() Screen {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screen
}

// Tabs returns the active events and album tabs.
func (s *Session) Tabs() (EventsTab, AlbumTab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventsTab, s.albumTab
}

// Recovery returns the state of the recovery flow.
func (s *Session) Recovery() Recovery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recovery
}

// SelectedGroup returns the group whose events are shown.
func (s *Session) SelectedGroup() (models.Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g := s.groupLocked(s.groupID); g != nil {
		return *g, true
	}
	return models.Group{}, false
}

// SelectedEvent returns the event whose album is shown.
func (s *Session) SelectedEvent() (models.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e := s.eventLocked(s.eventID); e != nil {
		return *e, true
	}
	return models.Event{}, false
}

// Users returns the cached users.
func (s *Session) Users() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.users)
}

// Groups returns every cached group, locked ones included.
func (s *Session) Groups() []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.groups)
}

// VisibleEvents returns the events of the selected group filtered by the
// events tab, or nil when no accessible group is open.
func (s *Session) VisibleEvents() []models.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil || s.groupAccessLocked() != nil {
		return nil
	}
	return slices.Clone(FilteredEvents(s.eventsTab, EventsInGroup(s.events, s.groupID), s.user.ID))
}

// VisiblePhotos returns the photos of the selected event filtered by the
// album tab.
func (s *Session) VisiblePhotos() []models.Photo {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.selectedEventLocked()
	if err != nil {
		return nil
	}
	return FilteredPhotos(s.albumTab, s.photos, e.ID, s.user.ID)
}

// PhotoCount returns the number of cached photos of eventID.
func (s *Session) PhotoCount(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return PhotoCount(s.photos, eventID)
}

// EventMembers returns the users on the selected event.
func (s *Session) EventMembers() []models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, err := s.selectedEventLocked()
	if err != nil {
		return nil
	}
	return EventMembers(e, s.users)
}

func (s *Session) userID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return "", ErrNotLoggedIn
	}
	return s.user.ID, nil
}

// The *Locked helpers expect s.mu to be held.

func (s *Session) selectedEventLocked() (*models.Event, error) {
	if s.user == nil {
		return nil, ErrNotLoggedIn
	}
	if s.eventID == "" {
		return nil, ErrNoEventSelected
	}
	if err := s.groupAccessLocked(); err != nil {
		return nil, err
	}
	e := s.eventLocked(s.eventID)
	if e == nil || !inGroup(e, s.groupID) {
		return nil, ErrEventNotFound
	}
	return e, nil
}

// groupAccessLocked checks that a group is open and still accessible. A
// group locked after it was opened closes to non-members.
func (s *Session) groupAccessLocked() error {
	if s.groupID == "" {
		return ErrNoGroupSelected
	}
	g := s.groupLocked(s.groupID)
	if g == nil {
		return ErrGroupNotFound
	}
	if !CanAccessGroup(g, s.user.ID) {
		return ErrNotGroupMember
	}
	return nil
}

func inGroup(e *models.Event, groupID string) bool {
	return e.GroupID == "" || e.GroupID == groupID
}

func (s *Session) groupLocked(id string) *models.Group {
	if id == "" {
		return nil
	}
	i := slices.IndexFunc(s.groups, func(g models.Group) bool { return g.ID == id })
	if i < 0 {
		return nil
	}
	return &s.groups[i]
}

func (s *Session) eventLocked(id string) *models.Event {
	if id == "" {
		return nil
	}
	i := slices.IndexFunc(s.events, func(e models.Event) bool { return e.ID == id })
	if i < 0 {
		return nil
	}
	return &s.events[i]
}

func (s *Session) userByNameLocked(username string) *models.User {
	i := slices.IndexFunc(s.users, func(u models.User) bool { return u.Username == username })
	if i < 0 {
		return nil
	}
	return &s.users[i]
}

func (s *Session) userByPhoneLocked(phone string) *models.User {
	if phone == "" {
		return nil
	}
	i := slices.IndexFunc(s.users, func(u models.User) bool { return u.PhoneNumber == phone })
	if i < 0 {
		return nil
	}
	return &s.users[i]
}

func userKey(u models.User) string   { return u.ID }
func groupKey(g models.Group) string { return g.ID }
func eventKey(e models.Event) string { return e.ID }
func photoKey(p models.Photo) string { return p.ID }

// upsert returns a copy of list with v replacing the element of the same key,
// or appended. Snapshot slices are shared, so list is not modified.
func upsert[T any](list []T, v T, key func(T) string) []T {
	out := slices.Clone(list)
	k := key(v)
	for i := range out {
		if key(out[i]) == k {
			out[i] = v
			return out
		}
	}
	return append(out, v)
}

func remove[T any](list []T, k string, key func(T) string) []T {
	return slices.DeleteFunc(slices.Clone(list), func(v T) bool { return key(v) == k })
}

// directory serves the authenticator from the session's user cache.
type directory struct{ s *Session }

func (d directory) FindUsersByUsername(_ context.Context, username string) ([]*models.User, error) {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	var out []*models.User
	for _, u := range d.s.users {
		if u.Username == username {
			cp := u
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (d directory) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = docstore.NewKey()

	d.s.mu.Lock()
	d.s.users = upsert(d.s.users, *user, userKey)
	d.s.mu.Unlock()

	if err := d.s.store.Set(ctx, docstore.Users, user.ID, user); err != nil {
		return writeErr(OpRegister, err)
	}
	slog.Info("User registered", "user_id", user.ID)
	return nil
}

var _ auth.UserStorage = directory{}

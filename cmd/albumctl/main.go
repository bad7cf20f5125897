package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docopt/docopt-go"

	"github.com/mmynk/familyalbum/internal/album"
	"github.com/mmynk/familyalbum/internal/auth"
	"github.com/mmynk/familyalbum/internal/config"
	"github.com/mmynk/familyalbum/internal/docstore/remote"
	"github.com/mmynk/familyalbum/pkg/logging"
)

const AlbumCtlVersion = "0.1.0"

var Out *log.Logger
var Err *log.Logger

func init() {
	Out = log.New(os.Stdout, "", 0)
	Err = log.New(os.Stderr, "", 0)
}

func main() {
	usage := `Family album control.

Store settings default to STORE_URL and STORE_TOKEN. Image arguments are the
already encoded image data (for example a data: URL).

Usage:
    albumctl token --secret=<secret> [--client=<client_id>] [--ttl=<duration>]
    albumctl register [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password> --confirm=<password>
        [--profile_name=<name>] [--phone=<phone>] [--picture=<image>]
    albumctl login [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
    albumctl groups [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
    albumctl create-group [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --name=<name> [--avatar=<image>]
    albumctl delete-group [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password> <group_id>
    albumctl lock [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password> <group_id>
    albumctl events [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --group=<group_id> [--passcode=<code>] [--tab=<tab>]
    albumctl create-event [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --group=<group_id> [--passcode=<code>] --title=<title> --date=<date>
    albumctl delete-event [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password> <event_id>
    albumctl photos [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --group=<group_id> [--passcode=<code>]
        --event=<event_id> [--tab=<tab>]
    albumctl add-photo [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --group=<group_id> [--passcode=<code>]
        --event=<event_id> <image>
    albumctl delete-photo [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password> <photo_id>
    albumctl add-member [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --group=<group_id> [--passcode=<code>]
        --event=<event_id> <member_username>
    albumctl remove-member [--store_url=<url>] [--token=<jwt>]
        --username=<username> --password=<password>
        --group=<group_id> [--passcode=<code>]
        --event=<event_id> <member_id>
    albumctl recover (password | username) [--store_url=<url>] [--token=<jwt>]
        --phone=<phone> --code=<code> --new=<value> [--confirm=<value>]

Options:
    -h --help                  Show this screen.
    --version                  Show version.
    --secret=<secret>          Store server JWT secret.
    --client=<client_id>       Client id put in the token [default: albumctl].
    --ttl=<duration>           Token lifetime, 0 for none [default: 0].
    --store_url=<url>          Store server url.
    --token=<jwt>              Store credential.
    --passcode=<code>          Passcode for locked groups.
    --tab=<tab>                events: all, created, members. photos: all, added.`

	opts, err := docopt.ParseArgs(usage, os.Args[1:], AlbumCtlVersion)
	if err != nil {
		panic(err)
	}

	cfg := config.LoadClient()
	logging.Setup(cfg.LogLevel)

	if token_, _ := opts.Bool("token"); token_ {
		token(opts)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	commands := []struct {
		name string
		run  func(context.Context, *album.Session, docopt.Opts) error
	}{
		{"register", register},
		{"login", loginCmd},
		{"groups", groups},
		{"create-group", createGroup},
		{"delete-group", deleteGroup},
		{"lock", lock},
		{"events", events},
		{"create-event", createEvent},
		{"delete-event", deleteEvent},
		{"photos", photos},
		{"add-photo", addPhoto},
		{"delete-photo", deletePhoto},
		{"add-member", addMember},
		{"remove-member", removeMember},
		{"recover", recoverCredential},
	}

	for _, cmd := range commands {
		if selected, _ := opts.Bool(cmd.name); !selected {
			continue
		}
		session, err := connect(ctx, cfg, opts)
		if err != nil {
			Err.Printf("failed to connect to store: %v", err)
			os.Exit(1)
		}
		err = cmd.run(ctx, session, opts)
		session.Close()
		if err != nil {
			slog.Debug("Command failed", "command", cmd.name, "error", err)
			Err.Println(album.Alert(err))
			os.Exit(1)
		}
		return
	}
}

func connect(ctx context.Context, cfg *config.Client, opts docopt.Opts) (*album.Session, error) {
	storeURL := cfg.StoreURL
	if v, _ := opts.String("--store_url"); v != "" {
		storeURL = v
	}
	storeToken := cfg.StoreToken
	if v, _ := opts.String("--token"); v != "" {
		storeToken = v
	}
	if storeToken == "" {
		return nil, errors.New("no store credential, set STORE_TOKEN or --token")
	}

	store := remote.New(nil, storeURL, storeToken)
	session := album.NewSession(store,
		album.WithPasscode(cfg.GroupPasscode),
		album.WithVerificationCode(cfg.VerificationCode),
	)
	if err := session.Start(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// mint a store credential signed with the server secret
func token(opts docopt.Opts) {
	secret, _ := opts.String("--secret")
	clientID, _ := opts.String("--client")
	ttlStr, _ := opts.String("--ttl")

	ttl, err := time.ParseDuration(ttlStr)
	if err != nil {
		Err.Printf("invalid --ttl: %v", err)
		os.Exit(1)
	}

	jwt, err := auth.NewJWTManager(secret, ttl).Generate(clientID)
	if err != nil {
		Err.Printf("failed to generate token: %v", err)
		os.Exit(1)
	}
	Out.Println(jwt)
}

func login(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	username, _ := opts.String("--username")
	password, _ := opts.String("--password")
	_, err := s.Login(ctx, username, password)
	return err
}

func register(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	var reg auth.Registration
	reg.Username, _ = opts.String("--username")
	reg.Password, _ = opts.String("--password")
	reg.ConfirmPassword, _ = opts.String("--confirm")
	reg.ProfileName, _ = opts.String("--profile_name")
	reg.PhoneNumber, _ = opts.String("--phone")
	reg.ProfilePicture, _ = opts.String("--picture")

	user, err := s.Register(ctx, reg)
	if err != nil {
		return err
	}
	Out.Printf("%s %s", album.NoticeRegistered, user.ID)
	return nil
}

func loginCmd(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	user, _ := s.CurrentUser()
	Out.Printf("%s\t%s\t%s", user.ID, user.Username, user.ProfileName)
	return nil
}

func groups(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	user, _ := s.CurrentUser()
	for _, g := range s.Groups() {
		state := "open"
		if g.IsLocked {
			state = "locked"
			if album.CanAccessGroup(&g, user.ID) {
				state = "locked (member)"
			}
		}
		Out.Printf("%s\t%s\t%d events\t%s\t%s", g.ID, g.Name, g.EventsCount, g.LastActivity, state)
	}
	return nil
}

func createGroup(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	name, _ := opts.String("--name")
	avatar, _ := opts.String("--avatar")

	g, err := s.CreateGroup(ctx, name, avatar)
	if err != nil {
		return err
	}
	Out.Println(g.ID)
	return nil
}

func deleteGroup(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	groupID, _ := opts.String("<group_id>")
	return s.DeleteGroup(ctx, groupID)
}

func lock(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	groupID, _ := opts.String("<group_id>")

	g, err := s.ToggleLock(ctx, groupID)
	if err != nil {
		return err
	}
	Out.Printf("%s locked=%t", g.ID, g.IsLocked)
	return nil
}

// openGroup selects --group, answering the passcode prompt with --passcode
func openGroup(s *album.Session, opts docopt.Opts) error {
	groupID, _ := opts.String("--group")
	err := s.SelectGroup(groupID)
	if !errors.Is(err, album.ErrPasscodeRequired) {
		return err
	}
	passcode, _ := opts.String("--passcode")
	if passcode == "" {
		s.CancelPasscode()
		return err
	}
	return s.SubmitPasscode(passcode)
}

func events(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	if err := openGroup(s, opts); err != nil {
		return err
	}
	if tab, _ := opts.String("--tab"); tab != "" {
		s.SetEventsTab(album.EventsTab(tab))
	}

	for _, e := range s.VisibleEvents() {
		Out.Printf("%s\t%s\t%s\t%d members\t%d photos", e.ID, e.Title, e.Date, e.Members, s.PhotoCount(e.ID))
	}
	return nil
}

func createEvent(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	if err := openGroup(s, opts); err != nil {
		return err
	}
	title, _ := opts.String("--title")
	date, _ := opts.String("--date")

	e, err := s.CreateEvent(ctx, title, date)
	if err != nil {
		return err
	}
	Out.Println(e.ID)
	return nil
}

func deleteEvent(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	eventID, _ := opts.String("<event_id>")
	return s.DeleteEvent(ctx, eventID)
}

func openEvent(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	if err := openGroup(s, opts); err != nil {
		return err
	}
	eventID, _ := opts.String("--event")
	return s.SelectEvent(eventID)
}

func photos(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := openEvent(ctx, s, opts); err != nil {
		return err
	}
	if tab, _ := opts.String("--tab"); tab != "" {
		s.SetAlbumTab(album.AlbumTab(tab))
	}

	for _, p := range s.VisiblePhotos() {
		Out.Printf("%s\t%s\t%d bytes", p.ID, p.AddedBy, len(p.URL))
	}
	return nil
}

func addPhoto(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := openEvent(ctx, s, opts); err != nil {
		return err
	}
	image, _ := opts.String("<image>")

	p, err := s.AddPhoto(ctx, image)
	if err != nil {
		return err
	}
	Out.Println(p.ID)
	return nil
}

func deletePhoto(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := login(ctx, s, opts); err != nil {
		return err
	}
	photoID, _ := opts.String("<photo_id>")
	return s.DeletePhoto(ctx, photoID)
}

func addMember(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := openEvent(ctx, s, opts); err != nil {
		return err
	}
	username, _ := opts.String("<member_username>")

	e, err := s.AddEventMember(ctx, username)
	if err != nil {
		return err
	}
	Out.Printf("%s members=%d", e.ID, e.Members)
	return nil
}

func removeMember(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	if err := openEvent(ctx, s, opts); err != nil {
		return err
	}
	memberID, _ := opts.String("<member_id>")

	e, err := s.RemoveEventMember(ctx, memberID)
	if err != nil {
		return err
	}
	Out.Printf("%s members=%d", e.ID, e.Members)
	return nil
}

func recoverCredential(ctx context.Context, s *album.Session, opts docopt.Opts) error {
	kind := album.RecoverPassword
	if username_, _ := opts.Bool("username"); username_ {
		kind = album.RecoverUsername
	}
	phone, _ := opts.String("--phone")
	code, _ := opts.String("--code")
	value, _ := opts.String("--new")
	confirm, _ := opts.String("--confirm")

	s.StartRecovery(kind)
	notice, err := s.SendVerificationCode(phone)
	if err != nil {
		return err
	}
	Out.Println(notice)
	if err := s.VerifyCode(code); err != nil {
		return err
	}
	if err := s.ResetCredential(ctx, value, confirm); err != nil {
		return err
	}
	Out.Println(album.NoticeChanged)
	return nil
}

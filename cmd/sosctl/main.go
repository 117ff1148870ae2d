// sosctl drives the emergency-reporting backend from a terminal: the
// same session, profile and report flows the mobile app performs, with
// the session cached on disk between invocations.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"sos/pkg/client"
	"sos/pkg/models"
)

var defaultCoordinates = client.Coordinates{Latitude: -25.7, Longitude: -53.09}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	server := os.Getenv("SOS_SERVER")
	if server == "" {
		server = "http://localhost:8080"
	}

	dir := os.Getenv("SOS_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal("cannot resolve home dir:", err)
		}
		dir = filepath.Join(home, ".sos")
	}

	store, err := client.NewFileStore(dir)
	if err != nil {
		log.Fatal("cannot open state dir:", err)
	}

	api := client.NewAPI(server)
	session := client.NewSessionManager(store, api)
	theme := client.NewThemeManager(store)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	session.Load(ctx)
	theme.Load()

	cmd, args := os.Args[1], os.Args[2:]
	switch cmd {
	case "register":
		cmdRegister(ctx, api, session, args)
	case "login":
		cmdLogin(ctx, api, session, args)
	case "logout":
		session.Logout(ctx)
		fmt.Println("logged out")
	case "status":
		cmdStatus(session, theme)
	case "report":
		cmdReport(ctx, api, session, args)
	case "list":
		cmdList(ctx, api, session)
	case "profile":
		cmdProfile(ctx, api, session, args)
	case "theme":
		theme.Toggle()
		fmt.Println("theme:", theme.Theme())
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: sosctl <command> [flags]

commands:
  register   -email -password -name [-blood-type] [-phone]
  login      -email -password
  logout
  status
  report     [-lat] [-lng] -nature [-info]
  list
  profile    [-set field=value ...]
  theme`)
}

func requireLogin(session *client.SessionManager) {
	if !session.LoggedIn() {
		log.Fatal("not logged in, run `sosctl login` first")
	}
}

func cmdRegister(ctx context.Context, api *client.API, session *client.SessionManager, args []string) {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	name := fs.String("name", "", "full name")
	bloodType := fs.String("blood-type", "", "blood type")
	phone := fs.String("phone", "", "phone number")
	fs.Parse(args)

	resp, err := api.Register(ctx, models.RegisterRequest{
		Email: *email, Password: *password, Name: *name,
		BloodType: *bloodType, Phone: *phone,
	})
	if err != nil {
		log.Fatal("register failed: ", err)
	}

	session.SetAuth(ctx, resp.Session.AccessToken, resp.Session.RefreshToken, resp.User.ID, resp.Session.ExpiresIn)
	fmt.Println("registered as", resp.User.Email)
}

func cmdLogin(ctx context.Context, api *client.API, session *client.SessionManager, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	fs.Parse(args)

	resp, err := api.Login(ctx, *email, *password)
	if err != nil {
		log.Fatal("login failed: ", err)
	}

	session.SetAuth(ctx, resp.Session.AccessToken, resp.Session.RefreshToken, resp.User.ID, resp.Session.ExpiresIn)
	fmt.Println("logged in as", resp.User.Email)
}

func cmdStatus(session *client.SessionManager, theme *client.ThemeManager) {
	if session.LoggedIn() {
		fmt.Println("logged in, user:", session.UserID())
	} else {
		fmt.Println("logged out")
	}
	fmt.Println("theme:", theme.Theme())
}

func cmdReport(ctx context.Context, api *client.API, session *client.SessionManager, args []string) {
	requireLogin(session)

	fs := flag.NewFlagSet("report", flag.ExitOnError)
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	nature := fs.String("nature", "", "nature of the emergency")
	info := fs.String("info", "", "additional info")
	fs.Parse(args)

	coords := client.Coordinates{Latitude: *lat, Longitude: *lng}
	if !flagSet(fs, "lat") || !flagSet(fs, "lng") {
		coords = client.AcquireLocation(ctx, envLocation, 5*time.Second, defaultCoordinates)
	}

	emergency, err := api.CreateEmergency(ctx, models.CreateEmergencyRequest{
		Latitude:          &coords.Latitude,
		Longitude:         &coords.Longitude,
		NatureOfEmergency: *nature,
		AdditionalInfo:    *info,
	})
	if err != nil {
		log.Fatal("report failed: ", err)
	}

	fmt.Printf("emergency #%d created (%s) at %.5f,%.5f\n",
		emergency.ID, emergency.Status, emergency.Latitude, emergency.Longitude)
}

func cmdList(ctx context.Context, api *client.API, session *client.SessionManager) {
	requireLogin(session)

	list, err := api.GetEmergencies(ctx)
	if err != nil {
		log.Fatal("list failed: ", err)
	}

	if len(list) == 0 {
		fmt.Println("no reports yet")
		return
	}
	for _, e := range list {
		info := ""
		if e.AdditionalInfo != nil {
			info = " - " + *e.AdditionalInfo
		}
		fmt.Printf("#%d  %-9s %s (%.5f,%.5f)%s  %s\n",
			e.ID, e.Status, e.NatureOfEmergency, e.Latitude, e.Longitude,
			info, e.CreatedAt.Format(time.RFC3339))
	}
}

func cmdProfile(ctx context.Context, api *client.API, session *client.SessionManager, args []string) {
	requireLogin(session)

	fields := make(map[string]any)
	fs := flag.NewFlagSet("profile", flag.ExitOnError)
	fs.Func("set", "field=value (repeatable)", func(s string) error {
		for i := 0; i < len(s); i++ {
			if s[i] == '=' {
				fields[s[:i]] = s[i+1:]
				return nil
			}
		}
		return fmt.Errorf("expected field=value, got %q", s)
	})
	fs.Parse(args)

	var profile models.Profile
	var err error
	if len(fields) > 0 {
		profile, err = api.UpdateProfile(ctx, fields)
	} else {
		profile, err = api.GetProfile(ctx)
	}
	if err != nil {
		log.Fatal("profile failed: ", err)
	}

	out, _ := json.MarshalIndent(profile, "", "  ")
	fmt.Println(string(out))
}

// envLocation reads SOS_LOCATION ("lat,lng"), the desktop stand-in for
// the device location service.
func envLocation(ctx context.Context) (client.Coordinates, error) {
	raw := os.Getenv("SOS_LOCATION")
	var c client.Coordinates
	if _, err := fmt.Sscanf(raw, "%f,%f", &c.Latitude, &c.Longitude); err != nil {
		return c, fmt.Errorf("no device location available")
	}
	return c, nil
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

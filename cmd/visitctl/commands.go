package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mmynk/visitlog/internal/auth"
	"github.com/mmynk/visitlog/internal/core"
	"github.com/mmynk/visitlog/internal/models"
	"github.com/mmynk/visitlog/internal/session"
)

var errUsage = errors.New("invalid usage")

// sessionResetting commands replace or clear the stored session, so they
// still run when it cannot be read.
var sessionResetting = map[string]bool{
	"register": true,
	"login":    true,
	"logout":   true,
	"reset":    true,
}

// dateLayouts are accepted by "visits add -date", most specific first.
var dateLayouts = []string{time.RFC3339, "2006-01-02 15:04", "2006-01-02"}

type cli struct {
	api   core.API
	local *core.Core // nil when talking to a server
	coord *session.Coordinator

	logger   *slog.Logger
	in       *bufio.Reader
	out      io.Writer
	password func(*bufio.Reader, io.Writer) (string, error)
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	if err := c.coord.Hydrate(ctx); err != nil {
		if !sessionResetting[cmd] {
			return err
		}
		c.log().Warn("Stored session unreadable, continuing", "command", cmd, "error", err)
	}

	switch cmd {
	case "register":
		return c.register(ctx, rest)
	case "login":
		return c.login(ctx, rest)
	case "logout":
		if err := c.coord.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.out, "Logged out.")
		return nil
	case "whoami":
		return c.whoami()
	case "properties":
		if len(rest) > 0 && rest[0] == "add" {
			return c.addProperty(ctx, rest[1:])
		}
		return c.listProperties(ctx)
	case "visits":
		if len(rest) > 0 && rest[0] == "add" {
			return c.addVisit(ctx, rest[1:])
		}
		return c.listVisits(ctx, rest)
	case "reset":
		return c.reset(ctx, rest)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func (c *cli) log() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	return nil
}

func (c *cli) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "email")
	name := fs.String("name", "", "display name")
	phone := fs.String("phone", "", "phone number")
	if err := parse(fs, args); err != nil {
		return err
	}

	secret, err := c.password(c.in, c.out)
	if err != nil {
		return err
	}

	p := auth.RegisterParams{Email: *email, Name: *name, Secret: secret}
	if *phone != "" {
		p.Phone = phone
	}
	if err := c.coord.Register(ctx, p); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Registered and logged in as %s.\n", c.coord.State().User.Email)
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "email")
	if err := parse(fs, args); err != nil {
		return err
	}

	secret, err := c.password(c.in, c.out)
	if err != nil {
		return err
	}
	if err := c.coord.Login(ctx, *email, secret); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s.\n", c.coord.State().User.Email)
	return nil
}

func (c *cli) whoami() error {
	st := c.coord.State()
	if !st.IsAuthenticated() {
		fmt.Fprintln(c.out, "Not logged in.")
		return nil
	}
	u := st.User
	fmt.Fprintf(c.out, "%s <%s>\nid: %s\n", u.Name, u.Email, u.ID)
	if u.Phone != nil {
		fmt.Fprintf(c.out, "phone: %s\n", *u.Phone)
	}
	return nil
}

func (c *cli) listProperties(ctx context.Context) error {
	properties, err := c.api.ListProperties(ctx)
	if err != nil {
		return err
	}
	if len(properties) == 0 {
		fmt.Fprintln(c.out, "No properties.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tADDRESS")
	for _, p := range properties {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.Name, p.Address)
	}
	return tw.Flush()
}

func (c *cli) addProperty(ctx context.Context, args []string) error {
	fs := newFlagSet("properties add")
	name := fs.String("name", "", "property name")
	address := fs.String("address", "", "street address")
	description := fs.String("description", "", "optional notes")
	if err := parse(fs, args); err != nil {
		return err
	}

	in := models.PropertyInput{Name: *name, Address: *address}
	if *description != "" {
		in.Description = description
	}
	p, err := c.api.CreateProperty(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created property %s.\n", p.ID)
	return nil
}

func (c *cli) listVisits(ctx context.Context, args []string) error {
	fs := newFlagSet("visits")
	propertyID := fs.String("property", "", "only visits to this property")
	if err := parse(fs, args); err != nil {
		return err
	}

	details, err := c.visitDetails(ctx, *propertyID)
	if err != nil {
		return err
	}
	if len(details) == 0 {
		fmt.Fprintln(c.out, "No visits.")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tPROPERTY\tPARKING\tREASON")
	for _, d := range details {
		property := d.Visit.PropertyID
		if d.Property != nil {
			property = d.Property.Name
		}
		parking := "no"
		if d.Visit.NeedsParking {
			parking = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Visit.VisitDate.Local().Format("2006-01-02 15:04"), property, parking, d.Visit.Reason)
	}
	return tw.Flush()
}

// visitDetails lists visits newest first with their properties attached.
func (c *cli) visitDetails(ctx context.Context, propertyID string) ([]models.VisitDetail, error) {
	if c.local != nil && propertyID == "" {
		return c.local.ListVisitDetails(ctx)
	}

	var (
		visits []models.Visit
		err    error
	)
	if propertyID != "" {
		visits, err = c.api.ListVisitsByProperty(ctx, propertyID)
	} else {
		visits, err = c.api.ListVisits(ctx)
	}
	if err != nil {
		return nil, err
	}
	properties, err := c.api.ListProperties(ctx)
	if err != nil {
		return nil, err
	}
	return models.JoinVisits(visits, properties), nil
}

func (c *cli) addVisit(ctx context.Context, args []string) error {
	fs := newFlagSet("visits add")
	propertyID := fs.String("property", "", "property ID")
	date := fs.String("date", "", "visit date, e.g. 2024-05-01 14:30")
	parking := fs.Bool("parking", false, "a parking spot is needed")
	reason := fs.String("reason", "", "reason for the visit")
	if err := parse(fs, args); err != nil {
		return err
	}

	var visitDate time.Time
	if strings.TrimSpace(*date) != "" {
		d, err := parseDate(*date)
		if err != nil {
			return err
		}
		visitDate = d
	}

	v, err := c.api.CreateVisit(ctx, models.VisitInput{
		PropertyID:   *propertyID,
		VisitDate:    visitDate,
		NeedsParking: *parking,
		Reason:       *reason,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Created visit %s.\n", v.ID)
	return nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, models.NewInputError("visit_date", fmt.Sprintf("cannot parse %q", s))
}

func (c *cli) reset(ctx context.Context, args []string) error {
	fs := newFlagSet("reset")
	yes := fs.Bool("yes", false, "confirm deleting all data")
	if err := parse(fs, args); err != nil {
		return err
	}
	if c.local == nil {
		return fmt.Errorf("%w: reset only applies to the local store", errUsage)
	}
	if !*yes {
		return fmt.Errorf("%w: reset needs -yes", errUsage)
	}

	if err := c.local.Reset(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "All data deleted.")
	return nil
}

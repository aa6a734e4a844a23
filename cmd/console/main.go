package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"rent-console/internal/console"
	"rent-console/internal/console/accessmode"
	"rent-console/internal/console/consoleapi"
	"rent-console/internal/console/guard"
	"rent-console/internal/console/store"
	"rent-console/internal/permission"
	"rent-console/internal/platform/config"
	"rent-console/internal/platform/logger"
)

// command: public => no pasa por el guard.
type command struct {
	usage  string
	public bool
	run    func(ctx context.Context, app *console.App, args []string, out io.Writer) error
}

var commands = map[string]command{
	"login":            {usage: "login --email E --password P [--from PATH]", public: true, run: cmdLogin},
	"login-token":      {usage: "login-token REDIRECT_URL|TOKEN", public: true, run: cmdLoginToken},
	"signup":           {usage: "signup --email E --password P --name N [--phone X] [--type OWNER|ASSISTANT]", public: true, run: cmdSignup},
	"oauth-url":        {usage: "oauth-url", public: true, run: cmdOAuthURL},
	"logout":           {usage: "logout", public: true, run: cmdLogout},
	"whoami":           {usage: "whoami [--refresh]", run: cmdWhoami},
	"update-profile":   {usage: "update-profile [--name N] [--phone X]", run: cmdUpdateProfile},
	"change-password":  {usage: "change-password --current P --new P", run: cmdChangePassword},
	"mode":             {usage: "mode [owner|assistant]", run: cmdMode},
	"owner":            {usage: "owner ID|all", run: cmdOwner},
	"owners":           {usage: "owners", run: cmdOwners},
	"properties":       {usage: "properties", run: cmdProperties},
	"property":         {usage: "property ID", run: cmdProperty},
	"create-property":  {usage: "create-property --name N [--address A] [--city C] [--floors N]", run: cmdCreateProperty},
	"assistants":       {usage: "assistants", run: cmdAssistants},
	"add-assistant":    {usage: "add-assistant EMAIL", run: cmdAddAssistant},
	"remove-assistant": {usage: "remove-assistant USER_ID", run: cmdRemoveAssistant},
	"grants":           {usage: "grants PROPERTY_ID", run: cmdGrants},
	"grant":            {usage: "grant PROPERTY_ID EMAIL --perm P [--perm P...]", run: cmdGrant},
	"update-grant":     {usage: "update-grant PROPERTY_ID USER_ID --perm P [--perm P...]", run: cmdUpdateGrant},
	"revoke":           {usage: "revoke PROPERTY_ID USER_ID", run: cmdRevoke},
	"permissions":      {usage: "permissions", public: true, run: cmdPermissions},
	"theme":            {usage: "theme [light|dark]", public: true, run: cmdTheme},
}

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", describe(err))
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	var configPath, apiURL, statePath string

	flagSet := pflag.NewFlagSet("rent-console", pflag.ContinueOnError)
	flagSet.SetInterspersed(false)
	flagSet.StringVar(&configPath, "config", "", "path to YAML config (default: $"+config.EnvConfigPath+")")
	flagSet.StringVar(&apiURL, "api", "", "API base URL (overrides API_BASE_URL)")
	flagSet.StringVar(&statePath, "state", "", "persisted state file (overrides CONSOLE_STATE_PATH)")
	flagSet.Usage = func() { printUsage(os.Stderr, flagSet) }
	if err := flagSet.Parse(args); err != nil {
		if stderrors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if flagSet.NArg() == 0 {
		printUsage(out, flagSet)
		return nil
	}

	name := flagSet.Arg(0)
	cmd, ok := commands[name]
	if !ok {
		return errors.NotFoundf("command %q", name)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if apiURL != "" {
		cfg.Console.APIBaseURL = apiURL
	}
	if statePath != "" {
		cfg.Console.StatePath = statePath
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(firstNonEmpty(cfg.Log.Level, "warn")),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    firstNonEmpty(cfg.Log.App, "rent-console"),
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := console.New(console.Options{
		BaseURL:   cfg.Console.APIBaseURL,
		Timeout:   cfg.Console.Timeout,
		StatePath: cfg.Console.StatePath,
		Logger:    log,
	})
	if err != nil {
		return err
	}
	app.Start(ctx)

	if !cmd.public {
		if d := app.Guard.Evaluate("/" + name); d.Kind != guard.Render {
			return errors.Unauthorizedf("not logged in (run: rent-console login)")
		}
	}
	return cmd.run(ctx, app, flagSet.Args()[1:], out)
}

// -------------------------
// sesión
// -------------------------

func cmdLogin(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	var email, password, from string
	fs := pflag.NewFlagSet("login", pflag.ContinueOnError)
	fs.StringVar(&email, "email", "", "account email")
	fs.StringVar(&password, "password", os.Getenv("RENT_CONSOLE_PASSWORD"), "password (default: $RENT_CONSOLE_PASSWORD)")
	fs.StringVar(&from, "from", "", "route requested before login")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, dest, err := app.Login(ctx, email, password, from)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (%s)\nnext: %s\n", p.FullName, p.Email, dest)
	return nil
}

func cmdLoginToken(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.NotValidf("expected a redirect URL or token")
	}
	raw := args[0]
	if !strings.Contains(raw, "?") {
		raw = guard.RedirectPath + "?token=" + raw
	}
	p, err := app.CompleteOAuth(ctx, raw)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (%s)\n", p.FullName, p.Email)
	return nil
}

func cmdSignup(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	var in consoleapi.SignupRequest
	fs := pflag.NewFlagSet("signup", pflag.ContinueOnError)
	fs.StringVar(&in.Email, "email", "", "account email")
	fs.StringVar(&in.Password, "password", os.Getenv("RENT_CONSOLE_PASSWORD"), "password (default: $RENT_CONSOLE_PASSWORD)")
	fs.StringVar(&in.FullName, "name", "", "full name")
	fs.StringVar(&in.Phone, "phone", "", "phone")
	fs.StringVar(&in.UserType, "type", "", "OWNER (default) or ASSISTANT")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reg, err := app.Session.Signup(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "account %s created (id %d); now run: rent-console login --email %s\n", reg.Email, reg.ID, reg.Email)
	return nil
}

func cmdOAuthURL(_ context.Context, app *console.App, _ []string, out io.Writer) error {
	fmt.Fprintln(out, app.API.OAuthURL())
	return nil
}

func cmdLogout(ctx context.Context, app *console.App, _ []string, out io.Writer) error {
	app.Session.Logout(ctx)
	fmt.Fprintln(out, "logged out")
	return nil
}

func cmdWhoami(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	var refresh bool
	fs := pflag.NewFlagSet("whoami", pflag.ContinueOnError)
	fs.BoolVar(&refresh, "refresh", false, "fetch the profile from the API instead of the cached one")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, _ := app.Session.Profile()
	if refresh {
		var err error
		if p, err = app.Session.Refresh(ctx); err != nil {
			return err
		}
	}
	s := app.Modes.Snapshot()
	return yaml.NewEncoder(out).Encode(struct {
		Profile consoleapi.Profile `yaml:"profile"`
		Mode    string             `yaml:"mode"`
		OwnerID *int64             `yaml:"owner_id,omitempty"`
	}{p, string(s.Mode), s.SelectedOwnerID})
}

func cmdUpdateProfile(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	var name, phone string
	fs := pflag.NewFlagSet("update-profile", pflag.ContinueOnError)
	fs.StringVar(&name, "name", "", "full name")
	fs.StringVar(&phone, "phone", "", "phone")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var patch consoleapi.ProfilePatch
	if fs.Changed("name") {
		patch.FullName = &name
	}
	if fs.Changed("phone") {
		patch.Phone = &phone
	}
	p, err := app.Session.UpdateProfile(ctx, patch)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(out).Encode(p)
}

func cmdChangePassword(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	var current, next string
	fs := pflag.NewFlagSet("change-password", pflag.ContinueOnError)
	fs.StringVar(&current, "current", "", "current password")
	fs.StringVar(&next, "new", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := app.Session.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(out, "password changed")
	return nil
}

// -------------------------
// modo de acceso
// -------------------------

func cmdMode(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) == 1 {
		m, err := accessmode.ParseMode(args[0])
		if err != nil {
			return err
		}
		if err := app.Modes.SwitchMode(ctx, m); err != nil {
			return err
		}
	}
	if err := app.Modes.WaitRoster(ctx); err != nil {
		return err
	}

	s := app.Modes.Snapshot()
	owner := "all"
	if s.SelectedOwnerID != nil {
		owner = strconv.FormatInt(*s.SelectedOwnerID, 10)
	}
	fmt.Fprintf(out, "mode: %s\n", s.Mode)
	if s.Mode == accessmode.ModeAssistant {
		fmt.Fprintf(out, "owner: %s\nowners available: %d\n", owner, len(s.Roster))
	}
	return nil
}

func cmdOwner(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.NotValidf("expected an owner id or 'all'")
	}
	if err := app.Modes.WaitRoster(ctx); err != nil {
		return err
	}

	var id *int64
	if args[0] != "all" {
		v, err := parseID(args[0])
		if err != nil {
			return err
		}
		id = &v
	}
	if err := app.Modes.SelectOwner(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "owner filter: %s\n", args[0])
	return nil
}

func cmdOwners(ctx context.Context, app *console.App, _ []string, out io.Writer) error {
	app.Modes.Refresh(ctx)
	if err := app.Modes.WaitRoster(ctx); err != nil {
		return err
	}
	return printMembers(out, app.Modes.Snapshot().Roster)
}

// -------------------------
// propiedades
// -------------------------

func cmdProperties(ctx context.Context, app *console.App, _ []string, out io.Writer) error {
	props, err := app.Properties(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCITY\tROLE\tACCESS")
	for _, p := range props {
		access := "-"
		if p.AccessRole != "OWNER" {
			access = permission.Summary(p.Permissions)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.City, p.AccessRole, access)
	}
	return tw.Flush()
}

func cmdProperty(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.NotValidf("expected a property id")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	p, err := app.API.Property(ctx, id)
	if err != nil {
		return err
	}
	return yaml.NewEncoder(out).Encode(p)
}

func cmdCreateProperty(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	var in consoleapi.PropertyInput
	fs := pflag.NewFlagSet("create-property", pflag.ContinueOnError)
	fs.StringVar(&in.Name, "name", "", "property name")
	fs.StringVar(&in.Address, "address", "", "street address")
	fs.StringVar(&in.City, "city", "", "city")
	fs.StringVar(&in.State, "state", "", "state")
	fs.StringVar(&in.PostalCode, "postal-code", "", "postal code")
	fs.StringVar(&in.Country, "country", "", "country")
	fs.IntVar(&in.TotalFloors, "floors", 0, "total floors")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p, err := app.API.CreateProperty(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "property %d created\n", p.ID)
	return nil
}

// -------------------------
// asistentes y permisos
// -------------------------

func cmdAssistants(ctx context.Context, app *console.App, _ []string, out io.Writer) error {
	ms, err := app.Permissions.MyAssistants(ctx)
	if err != nil {
		return err
	}
	return printMembers(out, ms)
}

func cmdAddAssistant(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.NotValidf("expected an email")
	}
	m, err := app.Permissions.AddAssistant(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "assistant %s added (id %d)\n", m.Email, m.ID)
	return nil
}

func cmdRemoveAssistant(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.NotValidf("expected an assistant user id")
	}
	id, err := parseID(args[0])
	if err != nil {
		return err
	}
	if err := app.Permissions.RemoveAssistant(ctx, id); err != nil {
		return err
	}
	fmt.Fprintln(out, "assistant removed")
	return nil
}

func cmdGrants(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.NotValidf("expected a property id")
	}
	pid, err := parseID(args[0])
	if err != nil {
		return err
	}
	grants, err := app.Permissions.List(ctx, pid)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tEMAIL\tNAME\tACCESS\tPERMISSIONS")
	for _, g := range grants {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", g.UserID, g.Email, g.FullName, permission.Summary(g.Permissions), labels(g.Permissions))
	}
	return tw.Flush()
}

func cmdGrant(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	perms, rest, err := parsePerms("grant", args)
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		return errors.NotValidf("expected PROPERTY_ID EMAIL")
	}
	pid, err := parseID(rest[0])
	if err != nil {
		return err
	}
	g, err := app.Permissions.Grant(ctx, pid, rest[1], perms)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "granted %s to %s\n", permission.Summary(g.Permissions), g.Email)
	return nil
}

func cmdUpdateGrant(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	perms, rest, err := parsePerms("update-grant", args)
	if err != nil {
		return err
	}
	if len(rest) != 2 {
		return errors.NotValidf("expected PROPERTY_ID USER_ID")
	}
	pid, err := parseID(rest[0])
	if err != nil {
		return err
	}
	uid, err := parseID(rest[1])
	if err != nil {
		return err
	}
	g, err := app.Permissions.UpdatePermissions(ctx, pid, uid, perms)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "permissions set to %s\n", permission.Summary(g.Permissions))
	return nil
}

func cmdRevoke(ctx context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.NotValidf("expected PROPERTY_ID USER_ID")
	}
	pid, err := parseID(args[0])
	if err != nil {
		return err
	}
	uid, err := parseID(args[1])
	if err != nil {
		return err
	}
	if err := app.Permissions.Revoke(ctx, pid, uid); err != nil {
		return err
	}
	fmt.Fprintln(out, "access revoked")
	return nil
}

func cmdPermissions(_ context.Context, _ *console.App, _ []string, out io.Writer) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERMISSION\tLABEL")
	for _, p := range permission.All() {
		fmt.Fprintf(tw, "%s\t%s\n", p, p.Label())
	}
	return tw.Flush()
}

// -------------------------
// preferencias
// -------------------------

func cmdTheme(_ context.Context, app *console.App, args []string, out io.Writer) error {
	if len(args) == 1 {
		if err := app.Store.SetTheme(strings.ToLower(args[0])); err != nil {
			return err
		}
	}
	fmt.Fprintf(out, "theme: %s\n", firstNonEmpty(app.Store.Theme(), store.ThemeLight))
	return nil
}

// -------------------------
// helpers
// -------------------------

func labels(perms []permission.Permission) string {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.Label())
	}
	return strings.Join(out, ", ")
}

func parsePerms(name string, args []string) ([]permission.Permission, []string, error) {
	var raw []string
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringSliceVar(&raw, "perm", nil, "permission (repeatable or comma separated): "+strings.Join(permission.Strings(permission.All()), ", "))
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	perms := make([]permission.Permission, 0, len(raw))
	for _, s := range raw {
		p, err := permission.Parse(s)
		if err != nil {
			return nil, nil, errors.NewNotValid(err, "permission")
		}
		perms = append(perms, p)
	}
	return perms, fs.Args(), nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NotValidf("id %q", s)
	}
	return id, nil
}

func printMembers(out io.Writer, ms []consoleapi.Member) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tACTIVE")
	for _, m := range ms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", m.ID, m.FullName, m.Email, m.IsActive)
	}
	return tw.Flush()
}

// describe traduce la taxonomía de errores a un mensaje para la terminal.
func describe(err error) string {
	msg := err.Error()
	switch {
	case consoleapi.IsNetwork(err):
		return "cannot reach the API, try again (" + msg + ")"
	case errors.Is(err, errors.Forbidden):
		return "not allowed: " + msg
	case errors.Is(err, errors.NotValid):
		if fields := consoleapi.FieldErrors(err); len(fields) > 0 {
			keys := make([]string, 0, len(fields))
			for k := range fields {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			parts := make([]string, 0, len(keys))
			for _, k := range keys {
				parts = append(parts, k+": "+fields[k])
			}
			return "invalid input: " + strings.Join(parts, "; ")
		}
	}
	return msg
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	names := make([]string, 0, len(commands))
	for n := range commands {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: rent-console [flags] COMMAND [args]")
	fmt.Fprintln(w, "\ncommands:")
	for _, n := range names {
		fmt.Fprintf(w, "  %s\n", commands[n].usage)
	}
	fmt.Fprintln(w, "\nflags:")
	fmt.Fprint(w, fs.FlagUsages())
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

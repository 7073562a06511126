// Package main is the harmonic command line client.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/jamesprial/harmonic-mcp/internal/config"
	"github.com/jamesprial/harmonic-mcp/internal/export"
	"github.com/jamesprial/harmonic-mcp/internal/graphql"
	"github.com/jamesprial/harmonic-mcp/internal/profile"
	"github.com/jamesprial/harmonic-mcp/internal/search"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const usage = `usage: harmonic [-config file] [-env file] <command> [args]

commands:
  profile <person-id>              full profile with education and experience
  highlights <person-id>           highlight categories of a person
  profiles [-parallel n] <id>...   full profiles of several people as JSON
  search <text>                    typeahead search for people and companies
  saved-search [flags] <id|urn>    run a saved search
  companies [-xlsx file] <ids>     fetch companies by comma-separated ids
  token [-write] <token>           normalize a console token
`

var errUsage = errors.New("invalid usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("harmonic: ")

	global := flag.NewFlagSet("harmonic", flag.ContinueOnError)
	global.SetOutput(os.Stderr)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	configPath := global.String("config", "", "YAML config file")
	envPath := global.String("env", ".env", "dotenv file with HARMONIC_API_TOKEN")
	if err := global.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	if _, err := config.LoadDotEnv(*envPath); err != nil {
		log.Fatal(err)
	}

	cfg := config.DefaultConfig()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	config.ApplyEnvOverrides(cfg)

	client, err := graphql.NewHTTPClient(cfg.GraphQL)
	if err != nil {
		log.Fatal(err)
	}

	a := &app{
		profiles: profile.NewGraphQLProfileManager(client),
		searches: search.NewGraphQLSearchManager(client),
		envPath:  *envPath,
		stdout:   os.Stdout,
		stderr:   os.Stderr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, global.Args()); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		log.Fatal(graphql.Describe(err))
	}
}

// app runs one command against the Harmonic API.
type app struct {
	profiles profile.ProfileFetcher
	searches search.Searcher
	envPath  string
	stdout   io.Writer
	stderr   io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "profile":
		return a.profile(ctx, rest)
	case "highlights":
		return a.highlights(ctx, rest)
	case "profiles":
		return a.batchProfiles(ctx, rest)
	case "search":
		return a.typeahead(ctx, rest)
	case "saved-search":
		return a.savedSearch(ctx, rest)
	case "companies":
		return a.companies(ctx, rest)
	case "token":
		return a.token(rest)
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs
}

func parsePersonID(args []string) (int, error) {
	if len(args) != 1 {
		return 0, errUsage
	}
	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid person id %q", args[0])
	}
	return id, nil
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) profile(ctx context.Context, args []string) error {
	fs := a.flags("profile")
	asJSON := fs.Bool("json", false, "print the profile as JSON")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	id, err := parsePersonID(fs.Args())
	if err != nil {
		return err
	}

	p, err := a.profiles.GetFullProfile(ctx, id)
	if err != nil {
		return err
	}
	if *asJSON {
		return a.printJSON(p)
	}

	name := p.FullName
	if name == "" {
		name = fmt.Sprintf("Person %d", p.PersonID)
	}
	fmt.Fprintln(a.stdout, name)
	if len(p.Highlights) > 0 {
		fmt.Fprintf(a.stdout, "Highlights: %s\n", strings.Join(p.Highlights, ", "))
	}
	fmt.Fprintf(a.stdout, "\nEducation (%d):\n", len(p.Education))
	for _, e := range p.Education {
		fmt.Fprintln(a.stdout, profile.FormatEducation(e))
	}
	fmt.Fprintf(a.stdout, "\nExperience (%d):\n", len(p.Experience))
	for _, e := range p.Experience {
		fmt.Fprintln(a.stdout, profile.FormatExperience(e))
	}
	return nil
}

func (a *app) highlights(ctx context.Context, args []string) error {
	id, err := parsePersonID(args)
	if err != nil {
		return err
	}
	highlights, err := a.profiles.GetPersonHighlights(ctx, id)
	if err != nil {
		return err
	}
	for _, h := range highlights {
		fmt.Fprintln(a.stdout, h)
	}
	return nil
}

func (a *app) batchProfiles(ctx context.Context, args []string) error {
	fs := a.flags("profiles")
	parallel := fs.Int("parallel", 4, "concurrent requests")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() == 0 || *parallel < 1 {
		return errUsage
	}

	ids := make([]int, fs.NArg())
	for i, arg := range fs.Args() {
		id, err := parsePersonID([]string{arg})
		if err != nil {
			return err
		}
		ids[i] = id
	}

	results := make([]*profile.Profile, len(ids))
	sem := semaphore.NewWeighted(int64(*parallel))
	g, gctx := errgroup.WithContext(ctx)
	var acquireErr error
	for i, id := range ids {
		if err := sem.Acquire(gctx, 1); err != nil {
			acquireErr = err
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			p, err := a.profiles.GetFullProfile(gctx, id)
			if err != nil {
				return err
			}
			results[i] = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if acquireErr != nil {
		return acquireErr
	}
	return a.printJSON(results)
}

func (a *app) typeahead(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	res, err := a.searches.Typeahead(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	return a.printJSON(res)
}

func (a *app) savedSearch(ctx context.Context, args []string) error {
	fs := a.flags("saved-search")
	after := fs.String("after", "", "cursor returned by a previous page")
	size := fs.Int("size", 0, "page size (0 uses the server default)")
	xlsxPath := fs.String("xlsx", "", "write flattened companies to this workbook")
	idsOnly := fs.Bool("ids", false, "print company ids only")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 || *size < 0 {
		return errUsage
	}

	page, err := a.searches.RunSavedSearchPage(ctx, fs.Arg(0), *after, *size)
	if err != nil {
		return err
	}

	switch {
	case *idsOnly:
		for _, id := range search.CompanyIDs(page.Companies) {
			fmt.Fprintln(a.stdout, id)
		}
	case *xlsxPath != "":
		if err := writeWorkbook(*xlsxPath, page.Companies); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "wrote %d of %d companies to %s\n", len(page.Companies), page.TotalCount, *xlsxPath)
	default:
		if err := a.printJSON(page); err != nil {
			return err
		}
	}
	if page.HasNextPage {
		fmt.Fprintf(a.stderr, "more results: -after %s\n", page.EndCursor)
	}
	return nil
}

func (a *app) companies(ctx context.Context, args []string) error {
	fs := a.flags("companies")
	xlsxPath := fs.String("xlsx", "", "write flattened companies to this workbook")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errUsage
	}
	ids, err := search.ParseIDs(fs.Arg(0))
	if err != nil {
		return err
	}

	records, err := a.searches.CompaniesByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if *xlsxPath != "" {
		return writeWorkbook(*xlsxPath, records)
	}
	return a.printJSON(records)
}

func (a *app) token(args []string) error {
	fs := a.flags("token")
	write := fs.Bool("write", false, "store the token in the dotenv file")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	if fs.NArg() != 1 {
		return errUsage
	}

	if *write {
		if _, err := config.SaveToken(a.envPath, fs.Arg(0)); err != nil {
			return err
		}
		fmt.Fprintf(a.stderr, "saved %s to %s\n", config.EnvAPIToken, a.envPath)
		return nil
	}

	token, err := config.NormalizeToken(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s=%s\n", config.EnvAPIToken, token)
	return nil
}

func writeWorkbook(path string, records []json.RawMessage) (err error) {
	rows, err := search.FlattenCompanies(records)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return export.WriteCompaniesXLSX(f, rows)
}

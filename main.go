package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/9seconds/rangegeo/rangelib"
	kingpin "gopkg.in/alecthomas/kingpin.v2"
)

var version = "dev"

var (
	app = kingpin.New(
		"rangegeo",
		"Fast IPv4 geolocation with a table of address ranges")

	debug = app.Flag("debug", "Run in debug mode.").
		Short('d').
		Envar("RANGEGEO_DEBUG").
		Bool()

	serveCommand = app.Command("serve", "Run HTTP API.")
	serveConfig  = serveCommand.Arg("config-path", "Path to the config.").
			Required().
			ExistingFile()

	lookupCommand = app.Command("lookup", "Resolve given IPv4 addresses.")
	lookupDataset = lookupCommand.Flag("dataset", "Path to the dataset.").
			Short('f').
			Required().
			ExistingFile()
	lookupCountries = lookupCommand.Flag("country", "Keep only ranges of this country. Can be repeated.").
			Short('c').
			Strings()
	lookupHeader = lookupCommand.Flag("header", "Dataset starts with a header row.").
			Bool()
	lookupIPs = lookupCommand.Arg("ip", "IPv4 addresses to resolve.").
			Required().
			Strings()

	checkCommand = app.Command("check", "Load a dataset and report what was loaded.")
	checkDataset = checkCommand.Flag("dataset", "Path to the dataset.").
			Short('f').
			Required().
			ExistingFile()
	checkCountries = checkCommand.Flag("country", "Keep only ranges of this country. Can be repeated.").
			Short('c').
			Strings()
	checkHeader = checkCommand.Flag("header", "Dataset starts with a header row.").
			Bool()
)

func init() {
	app.Version(version)
	app.HelpFlag.Short('h')
}

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))
	log := newStderrLogger(*debug)

	switch command {
	case serveCommand.FullCommand():
		app.FatalIfError(mainServe(log, *serveConfig), "cannot run server")
	case lookupCommand.FullCommand():
		app.FatalIfError(mainLookup(os.Stdout, log, rangelib.LocatorOpts{
			Source:        *lookupDataset,
			CountryFilter: countriesOrNil(*lookupCountries),
			HasHeader:     *lookupHeader,
		}, *lookupIPs), "cannot lookup")
	case checkCommand.FullCommand():
		app.FatalIfError(mainCheck(os.Stdout, log, rangelib.LocatorOpts{
			Source:        *checkDataset,
			CountryFilter: countriesOrNil(*checkCountries),
			HasHeader:     *checkHeader,
		}), "dataset is broken")
	}
}

func mainServe(log *logger, configPath string) error {
	conf, err := parseConfig(configPath)
	if err != nil {
		return fmt.Errorf("cannot parse config: %w", err)
	}

	locator, err := makeLocator(conf, log)
	if err != nil {
		return fmt.Errorf("cannot create locator: %w", err)
	}

	defer locator.Shutdown()

	ctx, cancel := makeRootContext()
	defer cancel()

	server := &http.Server{
		Addr:    conf.GetListen(),
		Handler: makeHTTPHandler(conf, locator, makeRegistry(locator)),
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
			conf.GetShutdownTimeout())
		defer shutdownCancel()

		server.Shutdown(shutdownCtx) // nolint: errcheck
	}()

	log.appLog.Info().
		Str("listen", conf.GetListen()).
		Str("version", version).
		Msg("Start server")

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server has failed: %w", err)
	}

	log.appLog.Info().Msg("Server has been stopped")

	return nil
}

func mainLookup(w io.Writer, log *logger, opts rangelib.LocatorOpts, ips []string) error {
	opts.Logger = log

	locator, err := rangelib.NewLocator(opts)
	if err != nil {
		return err
	}

	defer locator.Shutdown()

	for _, ip := range ips {
		fmt.Fprintf(w, "IP: %s\n", ip)

		location, ok := locator.Lookup(ip)
		if !ok {
			fmt.Fprintln(w, "No match found")

			continue
		}

		fmt.Fprintf(w, "Country: %s\n", location.Country)
		fmt.Fprintf(w, "Region: %s\n", location.Region)
		fmt.Fprintf(w, "City: %s\n", location.City)
	}

	return nil
}

func mainCheck(w io.Writer, log *logger, opts rangelib.LocatorOpts) error {
	opts.Logger = log
	opts.StrictLoad = true

	locator, err := rangelib.NewLocator(opts)
	if err != nil {
		return err
	}

	defer locator.Shutdown()

	result := locator.LoadResult()
	table := locator.Table()

	fmt.Fprintf(w, "Rows: %d\n", result.Rows)
	fmt.Fprintf(w, "Ranges: %d\n", result.Ranges)
	fmt.Fprintf(w, "Filtered: %d\n", result.Filtered)
	fmt.Fprintf(w, "Sorted by loader: %t\n", result.Sorted)
	fmt.Fprintf(w, "Countries: %d\n", len(table.Countries()))

	return nil
}

package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/trailsum/trailsum/misc"
)

type empty int

const (
	devNull = empty(0)

	defaultListenAddress   = "0.0.0.0:8084"
	defaultShutdownTimeout = 15 * time.Second
)

const ( // settings
	// Logger:
	cfgLoggerLevel              = "logger.level"
	cfgLoggerFormat             = "logger.format"
	cfgLoggerTraceLevel         = "logger.trace_level"
	cfgLoggerNoDisclaimer       = "logger.no_disclaimer"
	cfgLoggerSamplingInitial    = "logger.sampling.initial"
	cfgLoggerSamplingThereafter = "logger.sampling.thereafter"

	// Web
	cfgListenAddress   = "listen_address"
	cfgUpstream        = "upstream"
	cfgShutdownTimeout = "shutdown_timeout"

	// Metrics / Profiler
	cfgEnableMetrics  = "metrics"
	cfgEnableProfiler = "pprof"

	// Application
	cfgApplicationName    = "app.name"
	cfgApplicationVersion = "app.version"
)

func (empty) Read([]byte) (int, error) { return 0, io.EOF }

func newSettings() *viper.Viper {
	v := viper.New()

	v.AutomaticEnv()
	v.SetEnvPrefix(misc.Prefix)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// flags setup:
	flags := pflag.NewFlagSet("commandline", pflag.ExitOnError)
	flags.SortFlags = false

	flags.Bool(cfgEnableProfiler, false, "enable pprof")
	flags.Bool(cfgEnableMetrics, false, "enable prometheus")

	help := flags.BoolP("help", "h", false, "show help")
	version := flags.BoolP("version", "v", false, "show version")

	flags.String(cfgListenAddress, defaultListenAddress, "gateway listen address")
	flags.StringP(cfgUpstream, "u", "", "upstream origin URL")
	flags.Duration(cfgShutdownTimeout, defaultShutdownTimeout, "graceful shutdown timeout")

	// set prefers:
	v.Set(cfgApplicationName, misc.ApplicationName)
	v.Set(cfgApplicationVersion, misc.Version)

	// set defaults:

	// logger:
	v.SetDefault(cfgLoggerLevel, "debug")
	v.SetDefault(cfgLoggerFormat, "console")
	v.SetDefault(cfgLoggerTraceLevel, "fatal")
	v.SetDefault(cfgLoggerNoDisclaimer, true)
	v.SetDefault(cfgLoggerSamplingInitial, 1000)
	v.SetDefault(cfgLoggerSamplingThereafter, 1000)

	if err := v.BindPFlags(flags); err != nil {
		panic(err)
	}

	if err := v.ReadConfig(devNull); err != nil {
		panic(err)
	}

	if err := flags.Parse(os.Args); err != nil {
		panic(err)
	}

	switch {
	case help != nil && *help:
		fmt.Printf("%s %s\n", misc.ApplicationName, misc.Version)
		flags.PrintDefaults()
		os.Exit(0)
	case version != nil && *version:
		fmt.Printf("%s %s\n", misc.ApplicationName, misc.Version)
		os.Exit(0)
	}

	return v
}

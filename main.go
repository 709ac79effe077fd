package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/skyezerfox/mcstatus/connection"
	"github.com/skyezerfox/mcstatus/constants"
	"github.com/skyezerfox/mcstatus/models"
	"github.com/skyezerfox/mcstatus/mojang"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	viper.SetConfigName("mcstatus")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.SetDefault("timeout", constants.DefaultTimeout)
	viper.SetDefault("interval", time.Duration(0))
	viper.SetDefault("output", "text")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("servers", map[string]interface{}{})

	pflag.String("config", "", "configuration file (default ./mcstatus.yaml)")
	pflag.Duration("timeout", constants.DefaultTimeout, "per query timeout")
	pflag.Duration("interval", 0, "re-query every interval, 0 queries once")
	pflag.StringP("output", "o", "text", "output format: text, json or yaml")
	pflag.String("log-level", "info", "log level")
	pflag.String("lookup", "", "look a player up in the Mojang API and exit")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] [java|bedrock:host[:port] ...]\n", os.Args[0])
		pflag.PrintDefaults()
	}
}

func loadConfig() {
	pflag.Parse()
	viper.BindPFlag("timeout", pflag.Lookup("timeout"))
	viper.BindPFlag("interval", pflag.Lookup("interval"))
	viper.BindPFlag("output", pflag.Lookup("output"))
	viper.BindPFlag("log_level", pflag.Lookup("log-level"))

	if path, _ := pflag.CommandLine.GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to read config")
		}
	} else if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := viper.SafeWriteConfig(); err != nil {
				log.Fatal().Err(err).Msg("Failed to write sample config")
			}
		} else {
			log.Fatal().Err(err).Msg("Failed to read config")
		}
	}

	level, err := zerolog.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid log level")
	}
	zerolog.SetGlobalLevel(level)
}

// readServers returns the configured servers sorted by name.
func readServers() []*models.ServerConfig {
	var byName map[string]*models.ServerConfig
	if err := viper.UnmarshalKey("servers", &byName); err != nil {
		log.Fatal().Err(err).Msg("Invalid servers configuration")
	}

	names := make([]string, 0, len(byName))
	for k := range byName {
		names = append(names, k)
	}
	sort.Strings(names)

	servers := make([]*models.ServerConfig, 0, len(names))
	for _, k := range names {
		s := byName[k]
		if s == nil || s.Host == "" {
			log.Fatal().Msgf("Invalid configuration block for server %s - missing host config", k)
		}
		s.Name = k
		servers = append(servers, s)
	}
	return servers
}

// parseTarget reads "[java:|bedrock:]host[:port]".
func parseTarget(arg string) (*models.ServerConfig, error) {
	edition, rest := models.EditionJava, arg
	if i := strings.Index(arg, ":"); i >= 0 {
		switch arg[:i] {
		case models.EditionJava, models.EditionBedrock:
			edition, rest = arg[:i], arg[i+1:]
		}
	}

	port := uint16(constants.DefaultJavaPort)
	if edition == models.EditionBedrock {
		port = constants.DefaultBedrockPort
	}
	addr, err := models.ParseAddress(rest, port)
	if err != nil {
		return nil, err
	}
	return &models.ServerConfig{
		Name:    arg,
		Host:    addr.Host,
		Port:    addr.Port,
		Edition: edition,
	}, nil
}

func main() {
	loadConfig()

	if username, _ := pflag.CommandLine.GetString("lookup"); username != "" {
		lookup(username)
		return
	}

	cm := connection.NewManager(viper.GetDuration("timeout"))
	for _, s := range readServers() {
		cm.AddServer(s)
	}
	for _, arg := range pflag.Args() {
		s, err := parseTarget(arg)
		if err != nil {
			log.Fatal().Err(err).Str("target", arg).Msg("Invalid server")
		}
		cm.AddServer(s)
	}
	if cm.GetServerCount() == 0 {
		log.Warn().Msg("No servers configured, add some to mcstatus.yaml or pass them as arguments")
		return
	}

	log.Debug().
		Str("version", constants.JavaVersion).
		Int("protocol", constants.JavaProtocol).
		Msgf("Have %d servers to query", cm.GetServerCount())

	stop := make(chan struct{})
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		close(stop)
	}()

	format := viper.GetString("output")
	cm.Watch(viper.GetDuration("interval"), stop, func(reports []connection.Report) {
		if err := render(os.Stdout, format, reports); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output")
		}
	})
}

func lookup(username string) {
	client := mojang.NewClient(viper.GetDuration("timeout"))
	result, err := mojang.SearchPlayer(client, username)
	if err != nil {
		log.Fatal().Err(err).Str("username", username).Msg("Lookup failed")
	}

	switch viper.GetString("output") {
	case "json", "yaml":
		err = encode(os.Stdout, viper.GetString("output"), result)
	default:
		err = printLookup(os.Stdout, result)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to write output")
	}
}

func encode(w io.Writer, format string, v interface{}) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

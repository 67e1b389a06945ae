package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/invopop/jsonschema"
	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/color"
	"github.com/vplayer/vplayer/config"
	"github.com/vplayer/vplayer/constant"
	"github.com/vplayer/vplayer/filesystem"
	"github.com/vplayer/vplayer/icon"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/style"
	"github.com/vplayer/vplayer/where"
)

// choices lists the accepted values of enumerated keys.
var choices = map[string]func() []string{
	key.PlayingBackend: player.AvailableEngines,
	key.IconsVariant:   icon.AvailableVariants,
	key.LogsLevel: func() []string {
		return []string{"panic", "fatal", "error", "warn", "info", "debug", "trace"}
	},
}

func closest(s string, options []string) string {
	return lo.MinBy(options, func(a string, b string) bool {
		return levenshtein.Distance(s, a) < levenshtein.Distance(s, b)
	})
}

func errUnknownKey(name string) error {
	return fmt.Errorf(
		"unknown key %s, did you mean %s?",
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(closest(name, lo.Keys(config.Default))),
	)
}

func lookupField(name string) (config.Field, error) {
	field, ok := config.Default[name]
	if !ok {
		return config.Field{}, errUnknownKey(name)
	}
	return field, nil
}

func checkChoice(name, value string) error {
	list, ok := choices[name]
	if !ok {
		return nil
	}
	options := list()
	if lo.Contains(options, value) {
		return nil
	}
	return fmt.Errorf(
		"%s cannot be %s, did you mean %s?",
		style.Fg(color.Purple)(name),
		style.Fg(color.Red)(value),
		style.Fg(color.Yellow)(closest(value, options)),
	)
}

// parseValue converts raw command line words to the type of the key's default.
// Volumes are clamped into 0..100.
func parseValue(name string, raw []string) (any, error) {
	field, err := lookupField(name)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("value is required as an argument or --value flag")
	}

	switch field.Value.(type) {
	case []string:
		return raw, nil
	case bool:
		b, err := strconv.ParseBool(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects a boolean, got %q", name, raw[0])
		}
		return b, nil
	case int:
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%s expects an integer, got %q", name, raw[0])
		}
		if name == key.PlayingVolume {
			n = lo.Clamp(n, 0, 100)
		}
		return n, nil
	default:
		if err := checkChoice(name, raw[0]); err != nil {
			return nil, err
		}
		return raw[0], nil
	}
}

// persist writes viper's state to the config file, creating it when missing.
func persist() error {
	err := viper.WriteConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return viper.SafeWriteConfig()
	}
	return err
}

func configFile() string {
	return filepath.Join(where.Config(), fmt.Sprintf("%s.%s", constant.App, "toml"))
}

// keyArg takes the key from the first argument or the --key flag.
func keyArg(cmd *cobra.Command, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if name, _ := cmd.Flags().GetString("key"); name != "" {
		return name, nil
	}
	return "", errors.New("key is required as an argument or --key flag")
}

func completionConfigKeys(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 1 {
		if list, ok := choices[args[0]]; ok {
			return list(), cobra.ShellCompDirectiveNoFileComp
		}
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return lo.Keys(config.Default), cobra.ShellCompDirectiveNoFileComp
}

func done(format string, a ...any) {
	fmt.Printf("%s %s\n", style.Fg(color.Green)(icon.Get(icon.Success)), fmt.Sprintf(format, a...))
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(
		configInfoCmd,
		configSetCmd,
		configGetCmd,
		configWriteCmd,
		configDeleteCmd,
		configResetCmd,
		configShowCmd,
		configSchemaCmd,
	)

	configInfoCmd.Flags().StringSliceP("key", "k", []string{}, "Keys to describe")
	configInfoCmd.Flags().BoolP("json", "j", false, "Output as json")
	_ = configInfoCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)

	configSetCmd.Flags().StringP("key", "k", "", "Key to change")
	configSetCmd.Flags().StringSliceP("value", "v", []string{}, "New value of the key")
	_ = configSetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)

	configGetCmd.Flags().StringP("key", "k", "", "Key to print")
	_ = configGetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)

	configWriteCmd.Flags().BoolP("force", "f", false, "Replace an existing config file")

	configResetCmd.Flags().StringP("key", "k", "", "Key to reset")
	configResetCmd.Flags().BoolP("all", "a", false, "Reset every key")
	configResetCmd.MarkFlagsMutuallyExclusive("key", "all")
	configResetCmd.MarkFlagsOneRequired("key", "all")
	_ = configResetCmd.RegisterFlagCompletionFunc("key", completionConfigKeys)

	for _, c := range []*cobra.Command{configInfoCmd, configShowCmd, configSchemaCmd} {
		c.SetOut(os.Stdout)
	}
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and change player settings",
}

var configInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Describe settings with their defaults and current values",
	Run: func(cmd *cobra.Command, args []string) {
		names := lo.Must(cmd.Flags().GetStringSlice("key"))
		if len(names) == 0 {
			names = lo.Keys(config.Default)
		}
		sort.Strings(names)

		fields := make([]config.Field, 0, len(names))
		for _, name := range names {
			field, err := lookupField(name)
			handleErr(err)
			fields = append(fields, field)
		}

		if lo.Must(cmd.Flags().GetBool("json")) {
			handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(fields))
			return
		}

		for i, field := range fields {
			if i > 0 {
				fmt.Fprint(cmd.OutOrStdout(), "\n\n")
			}
			fmt.Fprint(cmd.OutOrStdout(), field.Pretty())
		}
	},
}

var configSetCmd = &cobra.Command{
	Use:               "set [key] [value...]",
	Short:             "Change a setting and save it to the config file",
	Example:           "  vplayer config set playing.backend ffmpeg\n  vplayer config set playing.volume 80",
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		name, err := keyArg(cmd, args)
		handleErr(err)

		raw := lo.Must(cmd.Flags().GetStringSlice("value"))
		if len(args) > 1 {
			raw = args[1:]
		}

		v, err := parseValue(name, raw)
		handleErr(err)

		viper.Set(name, v)
		handleErr(persist())
		done("set %s to %s", style.Fg(color.Purple)(name), style.Fg(color.Yellow)(fmt.Sprint(v)))
	},
}

var configGetCmd = &cobra.Command{
	Use:               "get [key]",
	Short:             "Print the current value of a setting",
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completionConfigKeys,
	Run: func(cmd *cobra.Command, args []string) {
		name, err := keyArg(cmd, args)
		handleErr(err)
		_, err = lookupField(name)
		handleErr(err)

		fmt.Println(viper.Get(name))
	},
}

var configWriteCmd = &cobra.Command{
	Use:   "write",
	Short: "Save the current settings to a new config file",
	Run: func(cmd *cobra.Command, args []string) {
		path := configFile()
		if lo.Must(cmd.Flags().GetBool("force")) {
			if exists, _ := filesystem.API().Exists(path); exists {
				handleErr(filesystem.API().Remove(path))
			}
		}

		handleErr(viper.SafeWriteConfig())
		done("wrote config to %s", path)
	},
}

var configDeleteCmd = &cobra.Command{
	Use:     "delete",
	Short:   "Remove the config file",
	Aliases: []string{"remove"},
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(filesystem.API().Remove(configFile()))
		done("deleted config")
	},
}

var configResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore settings to their defaults",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("all")) {
			for name, field := range config.Default {
				viper.Set(name, field.Value)
			}
			handleErr(persist())
			done("reset all config values")
			return
		}

		name := lo.Must(cmd.Flags().GetString("key"))
		field, err := lookupField(name)
		handleErr(err)

		viper.Set(name, field.Value)
		handleErr(persist())
		done("reset %s to %s", style.Fg(color.Purple)(name), style.Fg(color.Yellow)(fmt.Sprint(field.Value)))
	},
}

// configShowCmd prints the effective configuration after file, env and flag overrides.
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as json",
	Run: func(cmd *cobra.Command, args []string) {
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		handleErr(encoder.Encode(config.Current()))
	},
}

var configSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the json schema of the config file",
	Run: func(cmd *cobra.Command, args []string) {
		reflector := &jsonschema.Reflector{Anonymous: true, DoNotReference: true}
		handleErr(json.NewEncoder(cmd.OutOrStdout()).Encode(reflector.Reflect(&config.Snapshot{})))
	},
}

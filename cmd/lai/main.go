package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"lai-go/internal/app"
	"lai-go/internal/config"
	"lai-go/internal/lai"
	"lai-go/internal/model"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a LaiApp. The caller must defer app.Close().
// operation names the CLI command being run (e.g. "seal", "verify").
func newApp(operation string) (*app.LaiApp, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewLaiApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:          "lai",
	Short:        "Block encryption with round-trip verification",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults.BaseDir)
		if err := config.Init(defaults.ConfigPath, cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults.ConfigPath)
		fmt.Printf("Base Dir: %s\n", defaults.BaseDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults.ConfigPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults.ConfigPath)
		fmt.Printf("Base Dir:  %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:   %s\n", cfg.LogDir)
		fmt.Printf("p:         %s\n", cfg.Params.P)
		fmt.Printf("a:         %s\n", cfg.Params.A)
		fmt.Printf("P0:        %v\n", cfg.Params.P0)
		fmt.Printf("Cipher:    %s (workers: %d)\n", cfg.Cipher.Type, cfg.Cipher.Workers)
		for _, v := range cfg.Vaults {
			fmt.Printf("Vault:     %s (%s)\n", v.Name, v.Type)
		}
		fmt.Printf("Key Store: %s\n", cfg.KeyStore.Type)
		fmt.Printf("Database:  %s\n", cfg.Database.Type)
		return nil
	},
}

var configVaultCmd = &cobra.Command{
	Use:   "vault",
	Short: "Check that the vault is reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("config-vault")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.ValidateVault(); err != nil {
			return err
		}
		fmt.Println(color.GreenString("✓") + " Vault OK")
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage the key store",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the key store and protect it with a passphrase",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("keys-init")
		if err != nil {
			return err
		}
		defer a.Close()

		if a.KeysConfigured() {
			return fmt.Errorf("key store is already set up")
		}

		pass, err := app.ReadNewPassphrase()
		if err != nil {
			return err
		}
		if err := a.SetupKeys(pass); err != nil {
			return err
		}

		fmt.Println(color.GreenString("✓") + " Key store initialized")
		return nil
	},
}

// blocksize command
var blocksizeCmd = &cobra.Command{
	Use:   "blocksize",
	Short: "Show the plaintext block size for the configured modulus",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("blocksize")
		if err != nil {
			return err
		}
		defer a.Close()

		p := a.Params().P
		fmt.Printf("p:          %s\n", p)
		fmt.Printf("bit length: %d\n", p.BitLen())
		fmt.Printf("block size: %d byte(s)\n", a.BlockSize())
		return nil
	},
}

// seal command
var sealCmd = &cobra.Command{
	Use:   "seal FILE",
	Short: "Encrypt a file into a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, err := newApp("seal")
		if err != nil {
			return err
		}
		defer a.Close()

		bundle, err := a.Seal(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("seal failed: %w", err)
		}

		if out != "" {
			data, err := lai.MarshalBundle(bundle)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("writing bundle: %w", err)
			}
		}

		fmt.Printf("%s  %s in %d block(s)\n", bundle.ID, humanize.IBytes(uint64(*bundle.Length)), len(bundle.Blocks))
		return nil
	},
}

// open command
var openCmd = &cobra.Command{
	Use:   "open BUNDLE_ID",
	Short: "Decrypt a bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("output")

		a, err := newApp("open")
		if err != nil {
			return err
		}
		defer a.Close()

		var pass string
		if a.KeysConfigured() {
			pass, err = app.ReadPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		data, _, err := a.Open(cmd.Context(), args[0], pass)
		if err != nil {
			return fmt.Errorf("open failed: %w", err)
		}

		if out == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(out, data, 0600); err != nil {
			return fmt.Errorf("writing plaintext: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s to %s\n", humanize.IBytes(uint64(len(data))), out)
		return nil
	},
}

// verify command
var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Run a full encrypt/decrypt round trip on a file",
	Long: `Run a full encrypt/decrypt round trip on a file.

The round trip stores its bundle in the vault, marked with purpose "verify".
Its key is discarded afterwards, so 'lai open' refuses that bundle.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("verify")
		if err != nil {
			return err
		}
		defer a.Close()

		res, err := a.Verify(cmd.Context(), args[0])
		if err != nil {
			var mm *lai.RoundTripMismatchError
			if errors.As(err, &mm) {
				fmt.Fprintf(os.Stderr, "%s  byte %d differs (%d bytes in, %d out)\n", color.RedString("FAIL"), mm.Offset, mm.WantLen, mm.GotLen)
			}
			return fmt.Errorf("verify failed: %w", err)
		}

		fmt.Printf("%s  %s  %d block(s) of %d byte(s)  %s  bundle %s\n",
			color.GreenString("OK"),
			humanize.IBytes(uint64(res.Length)),
			res.Blocks,
			res.BlockSize,
			res.Elapsed.Truncate(time.Millisecond),
			res.BundleID,
		)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View run history",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		a, err := newApp("history")
		if err != nil {
			return err
		}
		defer a.Close()

		runs, err := a.History(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			duration := ""
			if r.Finished() {
				duration = r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond).String()
			}
			fmt.Printf("%s  %-7s  %s  %s  %8s  %-10s  %s\n",
				shortID(r.ID),
				r.Operation,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				statusString(r.Status),
				humanize.IBytes(uint64(r.Length)),
				duration,
				r.Source,
			)
			if r.Detail != "" {
				fmt.Printf("          %s\n", r.Detail)
			}
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configVaultCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(blocksizeCmd)
	rootCmd.AddCommand(sealCmd)
	sealCmd.Flags().StringP("output", "o", "", "Also write the bundle JSON to this file")
	rootCmd.AddCommand(openCmd)
	openCmd.Flags().StringP("output", "o", "", "Write plaintext to this file instead of stdout")
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 50, "Maximum number of runs to show")
}

func statusString(status string) string {
	padded := fmt.Sprintf("%-8s", status)
	switch status {
	case model.RunSuccess:
		return color.GreenString(padded)
	case model.RunError:
		return color.RedString(padded)
	default:
		return color.YellowString(padded)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// adminctl is the operator-side CLI: read the current totals and push the
// GoFundMe figure copied off the campaign dashboard, since GoFundMe has no
// API to read it from.

var (
	apiURL   string
	adminKey string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "adminctl",
		Short: "Administrative client for the donations API",
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "url", "http://localhost:8080", "API base URL")
	rootCmd.PersistentFlags().StringVar(&adminKey, "key", os.Getenv("ADMIN_SECRET"), "Admin key (defaults to ADMIN_SECRET)")

	rootCmd.AddCommand(totalsCmd(), setGoFundMeCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func totalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "totals",
		Short: "Print the current fundraising totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Get(apiURL + "/api/v1/donations")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
			}

			var totals map[string]interface{}
			if err := json.NewDecoder(resp.Body).Decode(&totals); err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(totals)
		},
	}
}

func setGoFundMeCmd() *cobra.Command {
	var amount float64
	var donors int

	cmd := &cobra.Command{
		Use:   "set-gofundme",
		Short: "Overwrite the GoFundMe offset with the campaign's current total",
		Long: `Overwrite the GoFundMe offset. Pass the full current total shown on the
campaign page, not the amount raised since the last update.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if adminKey == "" {
				return fmt.Errorf("admin key required (--key or ADMIN_SECRET)")
			}

			payload, err := json.Marshal(map[string]interface{}{
				"amount":     amount,
				"donorCount": donors,
			})
			if err != nil {
				return err
			}

			req, err := http.NewRequest(http.MethodPost, apiURL+"/api/v1/donations/gofundme", bytes.NewReader(payload))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("x-admin-key", adminKey)

			client := &http.Client{Timeout: 10 * time.Second}
			resp, err := client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, _ := io.ReadAll(resp.Body)
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, body)
			}
			fmt.Printf("%s", body)
			return nil
		},
	}
	cmd.Flags().Float64Var(&amount, "amount", -1, "Current GoFundMe total in dollars")
	cmd.Flags().IntVar(&donors, "donors", 0, "Current GoFundMe donor count")
	cmd.MarkFlagRequired("amount")
	return cmd
}

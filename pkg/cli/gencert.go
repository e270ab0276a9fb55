package cli

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/cohdi/cdimock/pkg/certs"
	"github.com/cohdi/cdimock/pkg/cli/internal/output"
	"github.com/cohdi/cdimock/pkg/config"
	"github.com/spf13/cobra"
)

type gencertFlags struct {
	certFile string
	keyFile  string
	hosts    []string
	validFor time.Duration
	force    bool
}

var gencertFlagVals gencertFlags

var gencertCmd = &cobra.Command{
	Use:   "gencert",
	Short: "Write a self-signed TLS certificate for the stub server",
	Long: `Generate a self-signed ECDSA certificate and key for serving HTTPS.
Clients under test must skip verification or trust the written certificate.`,
	Example: `  cdimock gencert
  cdimock gencert --host cdi.test --host 10.0.0.5 --valid-for 720h`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGencert(cmd.OutOrStdout(), &gencertFlagVals)
	},
}

// GencertOutput is the JSON output of gencert.
type GencertOutput struct {
	CertFile string    `json:"certFile"`
	KeyFile  string    `json:"keyFile"`
	DNSNames []string  `json:"dnsNames"`
	IPs      []string  `json:"ipAddresses"`
	NotAfter time.Time `json:"notAfter"`
}

func runGencert(w io.Writer, f *gencertFlags) error {
	if !f.force {
		for _, p := range []string{f.certFile, f.keyFile} {
			if _, err := os.Stat(p); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", p)
			}
		}
	}
	if f.validFor <= 0 {
		return errors.New("--valid-for must be positive")
	}

	opts := certs.DefaultOptions()
	opts.ValidFor = f.validFor
	if len(f.hosts) > 0 {
		opts.DNSNames = nil
		opts.IPAddresses = nil
		for _, h := range f.hosts {
			if ip := net.ParseIP(h); ip != nil {
				opts.IPAddresses = append(opts.IPAddresses, ip)
			} else {
				opts.DNSNames = append(opts.DNSNames, h)
			}
		}
		if len(opts.DNSNames) > 0 {
			opts.CommonName = opts.DNSNames[0]
		}
	}

	cert, err := certs.Generate(opts)
	if err != nil {
		return err
	}
	if err := certs.Save(cert, f.certFile, f.keyFile); err != nil {
		return err
	}

	out := GencertOutput{
		CertFile: f.certFile,
		KeyFile:  f.keyFile,
		DNSNames: cert.Certificate.DNSNames,
		NotAfter: cert.Certificate.NotAfter,
	}
	for _, ip := range cert.Certificate.IPAddresses {
		out.IPs = append(out.IPs, ip.String())
	}

	if jsonOutput {
		return output.JSON(w, out)
	}
	fmt.Fprintf(w, "Wrote %s and %s (expires %s)\n", out.CertFile, out.KeyFile, out.NotAfter.Format(time.RFC3339))
	return nil
}

func init() {
	rootCmd.AddCommand(gencertCmd)

	f := &gencertFlagVals
	gencertCmd.Flags().StringVar(&f.certFile, "cert", config.DefaultCertFile, "Certificate output path")
	gencertCmd.Flags().StringVar(&f.keyFile, "key", config.DefaultKeyFile, "Private key output path")
	gencertCmd.Flags().StringSliceVar(&f.hosts, "host", nil, "DNS name or IP the certificate is valid for (repeatable; default localhost, 127.0.0.1, ::1)")
	gencertCmd.Flags().DurationVar(&f.validFor, "valid-for", 365*24*time.Hour, "Certificate validity period")
	gencertCmd.Flags().BoolVar(&f.force, "force", false, "Overwrite existing files")
}

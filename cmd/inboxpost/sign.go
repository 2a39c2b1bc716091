package main

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vitalvas/inboxpost/activity"
	"github.com/vitalvas/inboxpost/deliver"
	"github.com/vitalvas/inboxpost/httpsig"
)

func newSignCmd(a *app) *cobra.Command {
	var (
		verify    bool
		publicKey bool
	)

	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Print the signed request without sending it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()

			if publicKey {
				return printPublicKey(w, a.cfg.Actor.PrivateKey)
			}

			client, err := a.newClient()
			if err != nil {
				return err
			}

			doc, err := activity.Load(a.cfg.Document)
			if err != nil {
				return fmt.Errorf("%w: %w", deliver.ErrIO, err)
			}

			req, err := client.Prepare(cmd.Context(), doc)
			if err != nil {
				return err
			}

			value, err := httpsig.ParseSignature(req.Header.Get("Signature"))
			if err != nil {
				return err
			}

			signingString, err := httpsig.SigningString(req, value.Headers)
			if err != nil {
				return err
			}

			printRequest(w, req, len(doc))
			fmt.Fprintf(w, "\n%s\n", signingString)

			if verify {
				if err := verifyOwnSignature(a.cfg.Actor.PrivateKey, value, signingString); err != nil {
					return err
				}

				fmt.Fprintln(w, "\nsignature verifies")
			}

			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&verify, "verify", false, "check the signature against the public half of the key")
	flags.BoolVar(&publicKey, "public-key", false, "print the public key PEM for the actor document and exit")

	return cmd
}

// printRequest writes the request line and headers in wire order.
func printRequest(w io.Writer, req *http.Request, bodyLen int) {
	fmt.Fprintf(w, "%s %s HTTP/1.1\n", req.Method, req.URL.RequestURI())
	fmt.Fprintf(w, "Host: %s\n", req.Host)

	names := make([]string, 0, len(req.Header))
	for name := range req.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, v := range req.Header[name] {
			fmt.Fprintf(w, "%s: %s\n", name, v)
		}
	}

	fmt.Fprintf(w, "Content-Length: %d\n", bodyLen)
}

func printPublicKey(w io.Writer, keyPath string) error {
	key, err := loadKey(keyPath)
	if err != nil {
		return err
	}

	data, err := httpsig.EncodeRSAPublicKeyPEM(&key.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %w", deliver.ErrCrypto, err)
	}

	_, err = w.Write(data)

	return err
}

func verifyOwnSignature(keyPath string, value httpsig.SignatureValue, signingString string) error {
	key, err := loadKey(keyPath)
	if err != nil {
		return err
	}

	verifier, err := httpsig.NewRSAVerifier(value.KeyID, &key.PublicKey)
	if err != nil {
		return fmt.Errorf("%w: %w", deliver.ErrCrypto, err)
	}

	if err := verifier.Verify([]byte(signingString), value.Signature); err != nil {
		return fmt.Errorf("%w: %w", deliver.ErrCrypto, err)
	}

	return nil
}

// loadKey reads the private key, classifying failures like deliver.New.
func loadKey(path string) (*rsa.PrivateKey, error) {
	key, err := httpsig.LoadRSAPrivateKey(path)
	if err != nil {
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("%w: private key: %w", deliver.ErrIO, err)
		}

		return nil, fmt.Errorf("%w: %w", deliver.ErrCrypto, err)
	}

	return key, nil
}

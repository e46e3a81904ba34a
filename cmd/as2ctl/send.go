package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/as2gw/gateway/internal/as2model"
	"github.com/as2gw/gateway/internal/mdnengine"
	"github.com/as2gw/gateway/internal/outbound"
	"github.com/as2gw/gateway/internal/profile"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSendCmd() *cobra.Command {
	var from, to, file string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a document to a trading partner",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from == "" || to == "" || file == "" {
				return fmt.Errorf("--from, --to and --file are required")
			}

			stores, err := openStores()
			if err != nil {
				return err
			}
			defer stores.Close()

			org, err := stores.profile.FindOrganization(from)
			if err != nil {
				return fmt.Errorf("failed to look up organization %s: %w", from, err)
			}
			if org == nil {
				return fmt.Errorf("organization %s not configured", from)
			}

			partner, err := stores.profile.FindPartner(to)
			if err != nil {
				return fmt.Errorf("failed to look up partner %s: %w", to, err)
			}
			if partner == nil {
				return fmt.Errorf("partner %s not configured", to)
			}

			payload, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", file, err)
			}

			var signCert, encryptCert *profile.ResolvedCert
			if partner.SignatureAlg != "" {
				signCert, err = profile.ResolveCertificate(stores.profile, stores.secrets, org.SignatureCertID)
				if err != nil {
					return fmt.Errorf("failed to resolve signing certificate: %w", err)
				}
			}
			if partner.EncryptionAlg != "" {
				encryptCert, err = profile.ResolveCertificate(stores.profile, stores.secrets, partner.EncryptionCertID)
				if err != nil {
					return fmt.Errorf("failed to resolve encryption certificate: %w", err)
				}
			}

			messageID := fmt.Sprintf("%s@%s", uuid.New().String(), org.AS2Name)

			built, err := outbound.Build(outbound.BuildInput{
				Org:          org,
				Partner:      partner,
				PayloadBytes: payload,
				Filename:     filepath.Base(file),
				MessageID:    messageID,
				SignCert:     signCert,
				EncryptCert:  encryptCert,
			})
			if err != nil {
				return fmt.Errorf("failed to build outbound message: %w", err)
			}

			result, sendErr := outbound.Send(cmd.Context(), partner.TargetURL, built.Headers, built.Body,
				partner.HTTPAuthUser, partner.HTTPAuthPass, partner.HTTPSCACert, 60*time.Second)

			msg := &as2model.Message{
				ID:          uuid.New().String(),
				MessageID:   messageID,
				Direction:   as2model.DirectionOut,
				Timestamp:   time.Now(),
				Headers:     outbound.JoinHeaders(built.Headers),
				OrgName:     org.AS2Name,
				PartnerName: partner.AS2Name,
				Compressed:  partner.Compress,
				Encrypted:   partner.EncryptionAlg != "",
				Signed:      partner.SignatureAlg != "",
				MIC:         built.MIC,
				MICAlg:      built.MICAlg,
				MDNMode:     partner.MDNMode,
			}

			if sendErr != nil {
				msg.Status = as2model.StatusRetry
				msg.AdvStatus = "send-failed"
				msg.StatusMessage = sendErr.Error()
			} else if partner.MDNMode == as2model.MDNModeAsync {
				msg.Status = as2model.StatusPending
				msg.AdvStatus = "awaiting-async-mdn"
			} else if result != nil && len(result.Body) > 0 {
				parsed, parseErr := mdnengine.Parse(result.HeaderMap(), result.Body, partner.SignatureAlg != "", built.MIC, built.MICAlg)
				msg.Status, msg.AdvStatus = mdnengine.Reconcile(parsed, parseErr)
				if parseErr != nil {
					msg.StatusMessage = parseErr.Error()
				} else {
					msg.StatusMessage = "synchronous mdn received"
				}
			} else {
				msg.Status = as2model.StatusSuccess
				msg.AdvStatus = "processed"
			}

			if err := stores.store.CreateMessage(msg); err != nil {
				return fmt.Errorf("failed to persist message record: %w", err)
			}

			if sendErr != nil {
				return fmt.Errorf("send failed, queued for retry: %w", sendErr)
			}

			fmt.Printf("sent %s to %s (message-id %s)\n", file, partner.AS2Name, messageID)
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Sending organization AS2 name")
	cmd.Flags().StringVar(&to, "to", "", "Receiving partner AS2 name")
	cmd.Flags().StringVar(&file, "file", "", "Path to the document to send")
	return cmd
}

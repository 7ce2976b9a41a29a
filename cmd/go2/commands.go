package main

import (
	"encoding/hex"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/swanjin/go2/internal/config"
	"github.com/swanjin/go2/internal/logging"
	"github.com/swanjin/go2/internal/metrics"
	"github.com/swanjin/go2/internal/service"
	"github.com/swanjin/go2/internal/storage"
	"github.com/swanjin/go2/pkg/cdr"
	"github.com/swanjin/go2/pkg/helloworlddata"
	"github.com/swanjin/go2/pkg/topic"
)

func newService(cfg *config.Config, store storage.Repository, pub service.Publisher, m *metrics.Metrics, logger *logging.Logger) (*service.Service, error) {
	return service.NewService(store, logger, service.Options{
		Topic:     cfg.Topic.Name,
		TypeName:  cfg.Topic.TypeName,
		Encoding:  cfg.Encoding(),
		Transport: cfg.Transport,
		Publisher: pub,
		Metrics:   m,
	})
}

func newPublishCmd() *cobra.Command {
	var (
		userID   int64
		message  string
		count    int
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish HelloWorldData::Msg samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			if interval < 0 {
				return fmt.Errorf("--interval must not be negative, got %s", interval)
			}

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			pub, err := newPublisher(cfg, logger)
			if err != nil {
				return err
			}
			defer pub.Close()

			// Publishing never stores, so the repository is never opened
			svc, err := newService(cfg, nil, pub, metrics.New(), logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			limiter := rate.NewLimiter(rate.Inf, 1)
			if interval > 0 {
				limiter = rate.NewLimiter(rate.Every(interval), 1)
			}

			for i := 0; i < count; i++ {
				if err := limiter.Wait(ctx); err != nil {
					if ctx.Err() != nil {
						return nil
					}
					return err
				}

				msg := helloworlddata.NewMsg(userID, message)
				id, err := svc.PublishMsg(ctx, msg)
				if err != nil {
					return err
				}
				logger.Info("Published sample", "sampleId", id, "userID", msg.UserID(), "message", msg.Message())
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", id, msg)
			}
			return nil
		},
	}

	cmd.Flags().Int64VarP(&userID, "user-id", "u", 1, "userID field of the sample")
	cmd.Flags().StringVarP(&message, "message", "m", "Hello World", "message field of the sample")
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of samples to publish")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "Delay between samples")
	return cmd
}

func newSubscribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe",
		Short: "Receive samples and store them until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("Starting subscriber", "transport", cfg.Transport, "topic", cfg.Topic.Name)

			store, err := storage.NewStorage(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			m := metrics.New()
			svc, err := newService(cfg, store, nil, m, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if cfg.Metrics.Address != "" {
				go func() {
					if err := m.Serve(ctx, cfg.Metrics.Address, cfg.Metrics.Path, logger); err != nil {
						logger.Error("Metrics endpoint stopped", "error", err)
					}
				}()
			}

			if err := consume(ctx, cfg, svc.ProcessSample, logger); err != nil && ctx.Err() == nil {
				return fmt.Errorf("subscriber failed: %w", err)
			}

			logger.Info("Subscriber stopped")
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the most recently stored samples",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			store, err := storage.NewStorage(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			defer store.Close()

			svc, err := newService(cfg, store, nil, nil, logger)
			if err != nil {
				return err
			}
			if limit <= 0 {
				limit = cfg.Storage.ListLimit
			}

			samples, err := svc.Recent(limit)
			if err != nil {
				return err
			}
			table := newTable(cmd.OutOrStdout(), "Timestamp", "ID", "Transport", "Encoding", "User ID", "Message")
			for _, s := range samples {
				table.Append([]string{
					s.Timestamp.Format(time.RFC3339),
					s.ID,
					s.Metadata.Transport,
					s.Metadata.Encoding,
					strconv.FormatInt(s.UserID, 10),
					s.Message,
				})
			}
			table.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Number of samples to print (defaults to storage.listLimit)")
	return cmd
}

func newDescribeCmd() *cobra.Command {
	var (
		typeName  string
		showBlobs bool
	)

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "Print the registered type descriptor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return describe(cmd, typeName, showBlobs)
		},
	}

	cmd.Flags().StringVar(&typeName, "type", helloworlddata.TypeName, "Registered type name")
	cmd.Flags().BoolVar(&showBlobs, "blobs", false, "Dump the type-discovery blobs")
	return cmd
}

func describe(cmd *cobra.Command, typeName string, showBlobs bool) error {
	d, err := topic.Lookup(typeName)
	if err != nil {
		return fmt.Errorf("%w (registered: %s)", err, strings.Join(topic.Types(), ", "))
	}

	maxSize := "n/a"
	if typeName == helloworlddata.TypeName {
		size, bounded, err := helloworlddata.MaxSerializedSize(cdr.EncodingCDRLE)
		if err != nil {
			return err
		}
		maxSize = "unbounded"
		if bounded {
			maxSize = fmt.Sprintf("%d bytes", size)
		}
	}

	out := cmd.OutOrStdout()
	traits := newTable(out)
	traits.AppendBulk([][]string{
		{"Type", d.TypeName},
		{"Keyless", strconv.FormatBool(d.Keyless)},
		{"Self-contained", strconv.FormatBool(d.SelfContained)},
		{"Max size", maxSize},
		{"Type map", fmt.Sprintf("%d bytes", len(d.TypeMap))},
		{"Type info", fmt.Sprintf("%d bytes", len(d.TypeInfo))},
	})
	traits.Render()

	fmt.Fprintln(out)
	members := newTable(out, "Member ID", "Name", "Key")
	for _, m := range d.Props.Members {
		members.Append([]string{strconv.FormatUint(uint64(m.ID), 10), m.Name, strconv.FormatBool(m.IsKey)})
	}
	members.Render()

	if showBlobs {
		fmt.Fprintf(out, "\ntype map:\n%s", hex.Dump(d.TypeMap))
		fmt.Fprintf(out, "\ntype info:\n%s", hex.Dump(d.TypeInfo))
	}
	return nil
}

func newEncodeCmd() *cobra.Command {
	var (
		userID   int64
		message  string
		encoding string
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the CDR encoding of a sample as hex",
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := cdr.ParseEncoding(encoding)
			if err != nil {
				return err
			}
			data, err := helloworlddata.Marshal(helloworlddata.NewMsg(userID, message), enc)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hex.EncodeToString(data))
			return nil
		},
	}

	cmd.Flags().Int64VarP(&userID, "user-id", "u", 1, "userID field of the sample")
	cmd.Flags().StringVarP(&message, "message", "m", "Hello World", "message field of the sample")
	cmd.Flags().StringVarP(&encoding, "encoding", "e", "xcdr1", "xcdr1, xcdr1-be, xcdr2 or xcdr2-be")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>",
		Short: "Decode a hex CDR sample",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := hex.DecodeString(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("invalid hex: %w", err)
			}
			var msg helloworlddata.Msg
			enc, err := helloworlddata.UnmarshalEncoding(data, &msg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", msg, enc)
			return nil
		},
	}
}

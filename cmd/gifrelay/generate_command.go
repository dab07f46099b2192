package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"gifrelay/internal/capture"
	"gifrelay/internal/logging"
	"gifrelay/internal/relayclient"
	"gifrelay/internal/webcam"
)

type generateOptions struct {
	file      string
	useCamera bool
	device    string
	server    string
}

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Capture a face photo and turn it into an animated GIF",
		Long: "Capture a face photo from a file (--file) or a webcam frame (--camera),\n" +
			"send it to a running relay, and print the GIF URL.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if strings.TrimSpace(opts.file) == "" && !opts.useCamera {
				return errors.New("choose an image with --file or capture one with --camera")
			}
			if strings.TrimSpace(opts.file) != "" && opts.useCamera {
				return errors.New("--file and --camera cannot be combined")
			}

			serverURL := cfg.Client.ServerURL
			if value := strings.TrimSpace(opts.server); value != "" {
				serverURL = value
			}
			client, err := relayclient.New(serverURL, cfg.ClientTimeout())
			if err != nil {
				return err
			}

			var camera *capture.CameraSource
			if opts.useCamera {
				device := cfg.Client.CameraDevice
				if value := strings.TrimSpace(opts.device); value != "" {
					device = value
				}
				camera = capture.NewCameraSource(webcam.FFmpegCamera{Device: device, Binary: cfg.Client.FFmpegBinary})
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			session := capture.NewSession(client, camera, logger)
			defer session.Clear()

			return runGenerate(cmd.Context(), session, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Image file to animate (jpeg, png, or gif)")
	cmd.Flags().BoolVar(&opts.useCamera, "camera", false, "Capture the image from the webcam")
	cmd.Flags().StringVar(&opts.device, "device", "", "Camera device (overrides client.camera_device)")
	cmd.Flags().StringVar(&opts.server, "server", "", "Relay URL (overrides client.server_url)")
	return cmd
}

func runGenerate(ctx context.Context, session *capture.Session, opts generateOptions, in io.Reader, out io.Writer) error {
	colorize := shouldColorize(out)

	if opts.useCamera {
		if err := session.StartCamera(ctx); err != nil {
			renderSession(out, session.View(), colorize)
			return err
		}
		fmt.Fprintln(out, "Camera ready. Press Enter to capture.")
		if _, err := bufio.NewReader(in).ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		if err := session.CaptureFrame(ctx); err != nil {
			renderSession(out, session.View(), colorize)
			return err
		}
	} else if err := session.SelectFile(ctx, capture.FileSource{Path: opts.file}); err != nil {
		renderSession(out, session.View(), colorize)
		return err
	}

	renderSession(out, session.View(), colorize)
	fmt.Fprintln(out, renderStatusLine("Relay", statusInfo, "generating GIF...", colorize))

	err := session.Generate(ctx)
	renderSession(out, session.View(), colorize)
	if err != nil {
		return errors.New(session.View().Error)
	}
	return nil
}

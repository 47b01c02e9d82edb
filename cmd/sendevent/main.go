// Command sendevent signs a Clerk event JSON file with the webhook secret and posts it to a
// running receiver. Useful for exercising a local deployment without the Clerk dashboard.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/focusnest/webhook-service/internal/webhook"
	"github.com/focusnest/webhook-service/pkg/envconfig"
	"github.com/focusnest/webhook-service/pkg/logging"
)

func main() {
	target := flag.String("url", "http://localhost:8080/webhooks/clerk", "receiver endpoint")
	file := flag.String("file", "", "path to the event JSON (- for stdin)")
	id := flag.String("id", "", "delivery id; a random msg_ id is generated when empty")
	skew := flag.Duration("skew", 0, "shift the signed timestamp, e.g. -10m to test replay rejection")
	flag.Parse()

	logger := logging.NewLogger("sendevent")

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}

	body, err := readEvent(*file)
	if err != nil {
		logger.Error("read event", slog.Any("error", err))
		os.Exit(1)
	}

	signer, err := webhook.NewVerifier(envconfig.MustGet("CLERK_WEBHOOK_SECRET"))
	if err != nil {
		logger.Error("invalid secret", slog.Any("error", err))
		os.Exit(1)
	}

	deliveryID := *id
	if deliveryID == "" {
		deliveryID = "msg_" + uuid.NewString()
	}

	status, respBody, err := send(context.Background(), *target, signer, deliveryID, time.Now().Add(*skew), body)
	if err != nil {
		logger.Error("send event", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("event delivered", slog.String("deliveryId", deliveryID), slog.Int("status", status), slog.String("response", respBody))
	if status >= 300 {
		os.Exit(1)
	}
}

func readEvent(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

func send(ctx context.Context, target string, signer *webhook.Verifier, id string, ts time.Time, body []byte) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("build request: %w", err)
	}
	req.Header = signer.SignedHeaders(id, ts, body)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(bytes.TrimSpace(respBody)), nil
}

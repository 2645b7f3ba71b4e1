package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/go-telegram/bot"
)

// maxMediaSize caps downloaded submission media at 20 MB, the Telegram
// bot API download limit
const maxMediaSize = 20 << 20

// TelegramFileDownloader fetches user uploads through the bot API
type TelegramFileDownloader struct {
	bot    *bot.Bot
	client *http.Client
}

// NewTelegramFileDownloader creates a downloader over the given bot
func NewTelegramFileDownloader(b *bot.Bot) *TelegramFileDownloader {
	return &TelegramFileDownloader{
		bot:    b,
		client: http.DefaultClient,
	}
}

// DownloadFile resolves the file path for a file ID and downloads the
// contents, returning the data and the original file name
func (d *TelegramFileDownloader) DownloadFile(ctx context.Context, fileID string) ([]byte, string, error) {
	file, err := d.bot.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve file: %w", err)
	}

	link := d.bot.FileDownloadLink(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status downloading file: %s", resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaSize))
	if err != nil {
		return nil, "", err
	}

	return data, path.Base(file.FilePath), nil
}

// Package imgbb загружает картинки сборов на хостинг imgbb.
// Мини-апп отдает файл боту, бот пересылает его в imgbb и возвращает URL:
// так ключ API не утекает на клиент.
package imgbb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const uploadURL = "https://api.imgbb.com/1/upload"

// ErrNotConfigured возвращается, когда ключ API не задан.
var ErrNotConfigured = errors.New("загрузка картинок не настроена")

// Client загружает изображения через imgbb API.
type Client struct {
	apiKey string
	http   *http.Client
}

// NewClient создаёт клиент. Пустой ключ допустим: загрузка будет отключена.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey: apiKey,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Enabled сообщает, настроена ли загрузка.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

type uploadResponse struct {
	Success bool `json:"success"`
	Data    struct {
		URL string `json:"url"`
	} `json:"data"`
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload отправляет картинку и возвращает ее публичный URL.
func (c *Client) Upload(ctx context.Context, filename string, image io.Reader) (string, error) {
	if !c.Enabled() {
		return "", ErrNotConfigured
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", filename)
	if err != nil {
		return "", fmt.Errorf("ошибка формирования запроса: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return "", fmt.Errorf("ошибка чтения картинки: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("ошибка формирования запроса: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL+"?key="+c.apiKey, &body)
	if err != nil {
		return "", fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ошибка запроса к imgbb: %w", err)
	}
	defer resp.Body.Close()

	var parsed uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ошибка разбора ответа imgbb: %w", err)
	}
	if !parsed.Success || parsed.Data.URL == "" {
		if parsed.Error.Message != "" {
			return "", fmt.Errorf("imgbb отклонил загрузку: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("imgbb отклонил загрузку (http %d)", resp.StatusCode)
	}
	return parsed.Data.URL, nil
}

package uploadthing

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"
)

const (
	providerName   = "uploadthing"
	defaultBaseURL = "https://api.uploadthing.com"
	sdkVersion     = "6.4.0"
)

type Config struct {
	// Token is either the base64 encoded UPLOADTHING_TOKEN or a raw sk_ api key.
	Token      string
	AppID      string
	BaseURL    string
	HTTPClient *http.Client
}

type Client struct {
	apiKey     string
	appID      string
	baseURL    string
	httpClient *http.Client
}

type credentials struct {
	APIKey  string   `json:"apiKey"`
	AppID   string   `json:"appId"`
	Regions []string `json:"regions"`
}

func parseToken(raw string) (credentials, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return credentials{}, apperror.New(apperror.KindConfiguration, "UPLOADTHING_TOKEN is not configured")
	}
	if strings.HasPrefix(raw, "sk_") {
		return credentials{APIKey: raw}, nil
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		if decoded, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(raw, "=")); err != nil {
			return credentials{}, apperror.Wrap(apperror.KindConfiguration, err, "UPLOADTHING_TOKEN is not valid base64")
		}
	}
	var c credentials
	if err := json.Unmarshal(decoded, &c); err != nil {
		return credentials{}, apperror.Wrap(apperror.KindConfiguration, err, "UPLOADTHING_TOKEN is not valid")
	}
	if c.APIKey == "" {
		return credentials{}, apperror.New(apperror.KindConfiguration, "UPLOADTHING_TOKEN has no apiKey")
	}
	return c, nil
}

// NewClient builds the storage client. An explicit AppID wins over the one embedded in the token.
func NewClient(cfg Config) (repository.IFileStorage, error) {
	creds, err := parseToken(cfg.Token)
	if err != nil {
		return nil, err
	}
	appID := cfg.AppID
	if appID == "" {
		appID = creds.AppID
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Minute}
	}
	return &Client{apiKey: creds.APIKey, appID: appID, baseURL: base, httpClient: hc}, nil
}

type fileSpec struct {
	Name     string `json:"name"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
	CustomID string `json:"customId,omitempty"`
}

type uploadFilesRequest struct {
	Files              []fileSpec `json:"files"`
	ACL                string     `json:"acl"`
	ContentDisposition string     `json:"contentDisposition"`
}

type presignedUpload struct {
	Key      string            `json:"key"`
	FileName string            `json:"fileName"`
	FileType string            `json:"fileType"`
	FileURL  string            `json:"fileUrl"`
	URL      string            `json:"url"`
	Fields   map[string]string `json:"fields"`
	CustomID *string           `json:"customId"`
}

type uploadFilesResponse struct {
	Data []presignedUpload `json:"data"`
}

type listFilesResponse struct {
	HasMore bool `json:"hasMore"`
	Files   []struct {
		ID         string  `json:"id"`
		Key        string  `json:"key"`
		Name       string  `json:"name"`
		CustomID   *string `json:"customId"`
		Status     string  `json:"status"`
		Size       int64   `json:"size"`
		UploadedAt int64   `json:"uploadedAt"`
	} `json:"files"`
}

type getFileURLResponse struct {
	Data []struct {
		Key string `json:"key"`
		URL string `json:"url"`
	} `json:"data"`
}

func (c *Client) UploadFiles(ctx context.Context, files []model.UploadFile) ([]model.UploadFileResult, error) {
	start := time.Now()
	specs := make([]fileSpec, 0, len(files))
	for _, f := range files {
		specs = append(specs, fileSpec{Name: f.Name, Size: len(f.Data), Type: f.Type, CustomID: f.CustomID})
	}
	var presigned uploadFilesResponse
	err := c.post(ctx, "/v6/uploadFiles", uploadFilesRequest{Files: specs, ACL: "public-read", ContentDisposition: "inline"}, &presigned)
	if err != nil {
		metrics.RecordStorageOperation(providerName, "upload", "error", time.Since(start).Seconds())
		return nil, apperror.Wrap(apperror.KindUpload, err, "request upload urls")
	}
	if len(presigned.Data) != len(files) {
		metrics.RecordStorageOperation(providerName, "upload", "error", time.Since(start).Seconds())
		return nil, apperror.Newf(apperror.KindUpload, "storage returned %d upload slots for %d files", len(presigned.Data), len(files))
	}

	results := make([]model.UploadFileResult, len(files))
	for i, slot := range presigned.Data {
		if err := c.putFile(ctx, slot, files[i]); err != nil {
			results[i] = model.UploadFileResult{Error: err}
			continue
		}
		results[i] = model.UploadFileResult{Data: &model.UploadedFile{
			Key:  slot.Key,
			URL:  c.fileURL(slot),
			Name: files[i].Name,
			Size: int64(len(files[i].Data)),
		}}
	}
	metrics.RecordStorageOperation(providerName, "upload", "success", time.Since(start).Seconds())
	return results, nil
}

func (c *Client) fileURL(slot presignedUpload) string {
	if slot.FileURL != "" {
		return slot.FileURL
	}
	if u, err := c.PublicURL(slot.Key); err == nil {
		return u
	}
	return ""
}

// putFile sends the bytes to the presigned target: a multipart POST when form fields are
// provided, a plain PUT otherwise.
func (c *Client) putFile(ctx context.Context, slot presignedUpload, f model.UploadFile) error {
	var (
		body        io.Reader
		contentType string
		method      = http.MethodPut
	)
	if len(slot.Fields) > 0 {
		buf := &bytes.Buffer{}
		w := multipart.NewWriter(buf)
		for k, v := range slot.Fields {
			if err := w.WriteField(k, v); err != nil {
				return apperror.Wrap(apperror.KindUpload, err, "encode upload form")
			}
		}
		part, err := w.CreateFormFile("file", f.Name)
		if err != nil {
			return apperror.Wrap(apperror.KindUpload, err, "encode upload form")
		}
		if _, err := part.Write(f.Data); err != nil {
			return apperror.Wrap(apperror.KindUpload, err, "encode upload form")
		}
		if err := w.Close(); err != nil {
			return apperror.Wrap(apperror.KindUpload, err, "encode upload form")
		}
		body, contentType, method = buf, w.FormDataContentType(), http.MethodPost
	} else {
		body, contentType = bytes.NewReader(f.Data), f.Type
	}

	req, err := http.NewRequestWithContext(ctx, method, slot.URL, body)
	if err != nil {
		return apperror.Wrap(apperror.KindUpload, err, "build upload request")
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperror.Wrap(apperror.KindUpload, err, "upload file")
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return apperror.Newf(apperror.KindUpload, "storage rejected %s: %d %s", f.Name, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	logger.GetLogger().WithFields(map[string]interface{}{
		"file_key": slot.Key,
		"name":     f.Name,
		"size":     len(f.Data),
	}).Info("File uploaded to storage")
	return nil
}

func (c *Client) ListFiles(ctx context.Context) ([]model.StoredFile, error) {
	start := time.Now()
	var res listFilesResponse
	err := c.post(ctx, "/v6/listFiles", struct{}{}, &res)
	metrics.RecordStorageOperation(providerName, "list", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if res.HasMore {
		logger.GetLogger().WithField("returned", len(res.Files)).Warn("Storage listing truncated to first page")
	}
	files := make([]model.StoredFile, 0, len(res.Files))
	for _, f := range res.Files {
		sf := model.StoredFile{Key: f.Key, Name: f.Name, Status: f.Status, UploadedAt: f.UploadedAt}
		if f.CustomID != nil {
			sf.CustomID = *f.CustomID
		}
		files = append(files, sf)
	}
	return files, nil
}

func (c *Client) GetFileURLs(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	start := time.Now()
	var res getFileURLResponse
	err := c.post(ctx, "/v6/getFileUrl", map[string][]string{"fileKeys": keys}, &res)
	metrics.RecordStorageOperation(providerName, "get_urls", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	for _, d := range res.Data {
		if d.Key != "" && d.URL != "" {
			out[d.Key] = d.URL
		}
	}
	return out, nil
}

func (c *Client) PublicURL(key string) (string, error) {
	if c.appID == "" {
		return "", apperror.New(apperror.KindConfiguration, "UPLOADTHING_APP_ID is not configured")
	}
	return fmt.Sprintf("https://%s.ufs.sh/f/%s", c.appID, key), nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-uploadthing-api-key", c.apiKey)
	req.Header.Set("x-uploadthing-version", sdkVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage request %s: %w", path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read storage response %s: %w", path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &e)
		if e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return fmt.Errorf("storage %s returned %d: %s", path, resp.StatusCode, e.Error)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode storage response %s: %w", path, err)
	}
	return nil
}

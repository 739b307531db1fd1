package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"sos-expat/backend/internal/domain/providers"
	"sos-expat/backend/internal/httpjson"
	"sos-expat/backend/internal/middleware"
)

const (
	maxUploadItems   = 10
	maxFileNameRunes = 100
)

var kycContentTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"image/heic":      true,
}

// URLSigner issues V4 signed URLs.
type URLSigner interface {
	SignedURL(ctx context.Context, bucket, object, method, contentType string, ttl time.Duration) (string, time.Time, error)
}

type Uploads struct {
	bucket string
	signer URLSigner
}

func NewUploads(bucket string, signer URLSigner) *Uploads {
	return &Uploads{bucket: bucket, signer: signer}
}

type uploadItem struct {
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
}

type kycUploadReq struct {
	Items          []uploadItem `json:"items"`
	ExpiresSeconds int64        `json:"expiresSeconds,omitempty"` // default 900
}

type signedURLResp struct {
	ObjectPath  string `json:"objectPath"`
	URL         string `json:"url"`
	Method      string `json:"method"`
	ContentType string `json:"contentType"`
	ExpiresAt   int64  `json:"expiresAt"`
}

// CreateKYCUploadURLs returns signed PUT URLs for the caller's KYC folder.
// The object paths it returns are what SubmitKYC later accepts.
func (h *Uploads) CreateKYCUploadURLs(w http.ResponseWriter, r *http.Request) {
	uid := middleware.CallerUID(r.Context())
	if uid == "" {
		httpjson.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req kycUploadReq
	if err := httpjson.Read(r, &req); err != nil || len(req.Items) == 0 {
		httpjson.Error(w, http.StatusBadRequest, "items is required")
		return
	}
	if len(req.Items) > maxUploadItems {
		httpjson.Error(w, http.StatusBadRequest, "too many items")
		return
	}
	for _, it := range req.Items {
		if !kycContentTypes[strings.ToLower(strings.TrimSpace(it.ContentType))] {
			httpjson.Error(w, http.StatusBadRequest, "unsupported content type: "+it.ContentType)
			return
		}
	}

	ttl := time.Duration(req.ExpiresSeconds) * time.Second
	out := make([]signedURLResp, 0, len(req.Items))
	for _, it := range req.Items {
		ct := strings.ToLower(strings.TrimSpace(it.ContentType))
		object := KYCObjectPath(uid, uuid.NewString(), it.FileName)
		url, exp, err := h.signer.SignedURL(r.Context(), h.bucket, object, http.MethodPut, ct, ttl)
		if err != nil {
			httpjson.Error(w, http.StatusInternalServerError, err.Error())
			return
		}
		out = append(out, signedURLResp{ObjectPath: object, URL: url, Method: http.MethodPut, ContentType: ct, ExpiresAt: exp.Unix()})
	}
	httpjson.Write(w, http.StatusOK, map[string]interface{}{"items": out})
}

// KYCObjectPath places a file under the uid's KYC folder with a unique prefix.
func KYCObjectPath(uid, id, fileName string) string {
	return providers.KYCPrefix(uid) + id + "-" + SanitizeFileName(fileName)
}

// SanitizeFileName keeps letters, digits, dot, dash and underscore. Runs of
// dots collapse to one so the object path never contains "..".
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	var b strings.Builder
	n := 0
	prev := rune(0)
	for _, r := range name {
		if n == maxFileNameRunes {
			break
		}
		if r == '.' && prev == '.' {
			continue
		}
		prev = r
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
		n++
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "document"
	}
	return out
}

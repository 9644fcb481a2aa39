// Package devstub implements a development stand-in for the production
// backend: the credential endpoint, the profile endpoint and, in local mode,
// the storage itself. It exists so the client pipeline can be exercised end
// to end without real infrastructure. Never deploy it.
package devstub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bulatminnakhmetov/svidanka-media/internal/session"
)

// Extensions by declared video content type
var videoExtensions = map[string]string{
	"video/mp4":        "mp4",
	"video/quicktime":  "mov",
	"video/x-msvideo":  "avi",
}

type s3LinkRequest struct {
	UserUID  string `json:"user_uid"`
	FileType string `json:"user_video_filetype"`
}

type s3LinkResponse struct {
	URL      string `json:"url"`
	VideoURL string `json:"videoUrl"`
	Key      string `json:"key"`
}

type tokenRequest struct {
	UserUID string `json:"user_uid"`
	Email   string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// profileRecord is the stub's per-user state
type profileRecord struct {
	Email     string
	PhotoURLs [3]string
	VideoURL  string
}

// Server is the stub backend.
type Server struct {
	storage StorageProvider
	local   *LocalStorage // set only in local mode

	mu       sync.RWMutex
	profiles map[string]*profileRecord

	jwtSecret    []byte
	doubleEncode bool
	log          zerolog.Logger
}

type Option func(*Server)

// WithJWTSecret enables bearer-token checks on the API routes and the /token
// issuing endpoint.
func WithJWTSecret(secret []byte) Option {
	return func(s *Server) {
		s.jwtSecret = secret
	}
}

// WithDoubleEncodedResponses makes GET /userinfo wrap string fields in an
// extra JSON encoding layer, mimicking the production backend's quirk so
// clients exercise their defensive decoding.
func WithDoubleEncodedResponses(enabled bool) Option {
	return func(s *Server) {
		s.doubleEncode = enabled
	}
}

func NewServer(storage StorageProvider, log zerolog.Logger, opts ...Option) *Server {
	s := &Server{
		storage:      storage,
		profiles:     make(map[string]*profileRecord),
		doubleEncode: true,
		log:          log.With().Str("component", "devstub").Logger(),
	}
	if local, ok := storage.(*LocalStorage); ok {
		s.local = local
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetExternalURL tells local-mode storage where its URLs should point.
func (s *Server) SetExternalURL(baseURL string) {
	if s.local != nil {
		s.local.SetBaseURL(baseURL)
	}
}

// Router builds the HTTP surface.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(5 * time.Minute))

	if len(s.jwtSecret) > 0 {
		r.Post("/token", s.issueToken)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/s3Link", s.handleS3Link)
		r.Put("/userinfo", s.handleUserInfoUpdate)
		r.Get("/userinfo/{uid}", s.handleUserInfoGet)
	})

	if s.local != nil {
		// storage routes stay unauthenticated: the "presigned" URL is the
		// only capability, same as with a real object store
		r.Put("/storage/*", s.handleStoragePut)
		r.Get("/storage/*", s.handleStorageGet)
	}

	return r
}

// authMiddleware validates the bearer token when a secret is configured.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.jwtSecret) == 0 {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		var claims session.Claims
		token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), &claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.jwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) issueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserUID == "" {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	claims := session.Claims{
		UserUID: req.UserUID,
		Email:   req.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		http.Error(w, "Could not generate token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tokenResponse{Token: signed})
}

func (s *Server) handleS3Link(w http.ResponseWriter, r *http.Request) {
	var req s3LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.UserUID == "" {
		http.Error(w, "user_uid is required", http.StatusBadRequest)
		return
	}

	ext, ok := videoExtensions[req.FileType]
	if !ok {
		ext = "mp4"
	}
	key := fmt.Sprintf("videos/%s/%s.%s", req.UserUID, uuid.New().String(), ext)

	putURL, err := s.storage.PresignPut(r.Context(), key)
	if err != nil {
		s.log.Error().Err(err).Msg("presign failed")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s3LinkResponse{
		URL:      putURL,
		VideoURL: s.storage.PublicURL(key),
		Key:      key,
	})
}

func (s *Server) handleUserInfoUpdate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		http.Error(w, "Could not parse form", http.StatusBadRequest)
		return
	}

	uid := r.FormValue("user_uid")
	if uid == "" {
		http.Error(w, "user_uid is required", http.StatusBadRequest)
		return
	}

	record := &profileRecord{Email: r.FormValue("user_email_id")}

	s.mu.RLock()
	if existing, ok := s.profiles[uid]; ok {
		*record = *existing
		record.Email = r.FormValue("user_email_id")
	}
	s.mu.RUnlock()

	for i := 0; i < len(record.PhotoURLs); i++ {
		file, header, err := r.FormFile(fmt.Sprintf("img_%d", i))
		if err != nil {
			continue
		}

		key := fmt.Sprintf("images/%s/img_%d_%s%s", uid, i, uuid.New().String()[:8], filepath.Ext(header.Filename))
		publicURL, err := s.storage.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
		file.Close()
		if err != nil {
			s.log.Error().Err(err).Int("slot", i).Msg("photo upload failed")
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		record.PhotoURLs[i] = publicURL
	}

	if videoURL := r.FormValue("user_video_url"); videoURL != "" {
		record.VideoURL = videoURL
	}

	s.mu.Lock()
	s.profiles[uid] = record
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) handleUserInfoGet(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "uid")

	s.mu.RLock()
	record, ok := s.profiles[uid]
	s.mu.RUnlock()

	if !ok {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	photoURLs := make([]string, 0, len(record.PhotoURLs))
	for _, u := range record.PhotoURLs {
		if u != "" {
			photoURLs = append(photoURLs, u)
		}
	}

	resp := map[string]interface{}{
		"user_uid":      uid,
		"user_email_id": record.Email,
		"user_img_urls": photoURLs,
	}
	if record.VideoURL != "" {
		resp["user_video_url"] = record.VideoURL
		if s.doubleEncode {
			// reproduce the production quirk: the URL arrives wrapped in an
			// extra JSON encoding layer
			encoded, _ := json.Marshal(record.VideoURL)
			resp["user_video_url"] = string(encoded)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleStoragePut(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	if key == "" {
		http.Error(w, "Missing key", http.StatusBadRequest)
		return
	}

	if _, err := s.local.Upload(r.Context(), key, r.Body, r.ContentLength, r.Header.Get("Content-Type")); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleStorageGet(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")

	data, ok := s.local.Get(key)
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	w.Write(data)
}

// EnsureStorage prepares the storage backend (bucket creation for MinIO).
func (s *Server) EnsureStorage(ctx context.Context) error {
	if m, ok := s.storage.(*MinioStorage); ok {
		return m.EnsureBucket(ctx)
	}
	return nil
}

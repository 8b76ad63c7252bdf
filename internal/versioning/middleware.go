package versioning

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

type contextKey string

// VersionContextKey stores the negotiated APIVersion in the request context.
const VersionContextKey contextKey = "api_version"

// Version-related HTTP headers.
const (
	AcceptVersionHeader = "Accept-Version" // client specifies desired version
	APIVersionHeader    = "X-API-Version"  // alternative version specification

	CurrentVersionHeader    = "X-Current-Version"
	SupportedVersionsHeader = "X-Supported-Versions"
)

// VersionMiddleware negotiates the API version for HTTP requests. Clients
// may pin a version via header or URL path; unsupported versions are
// rejected before the handler runs.
type VersionMiddleware struct {
	logger *logrus.Logger
}

func NewVersionMiddleware(logger *logrus.Logger) *VersionMiddleware {
	return &VersionMiddleware{logger: logger}
}

// Handler is the middleware function.
func (vm *VersionMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestedVersion := vm.extractVersionFromRequest(r)

		w.Header().Set(CurrentVersionHeader, CurrentVersion.String())
		w.Header().Set(SupportedVersionsHeader, GetVersionRange())

		if !IsVersionSupported(requestedVersion) {
			vm.rejectVersion(w, r, requestedVersion)
			return
		}

		ctx := context.WithValue(r.Context(), VersionContextKey, requestedVersion)

		vm.logger.WithFields(logrus.Fields{
			"api_version":     requestedVersion.String(),
			"current_version": CurrentVersion.String(),
			"path":            r.URL.Path,
		}).Debug("API version negotiated")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractVersionFromRequest resolves the requested version from headers,
// then the URL path, defaulting to the current version.
func (vm *VersionMiddleware) extractVersionFromRequest(r *http.Request) APIVersion {
	if versionStr := r.Header.Get(AcceptVersionHeader); versionStr != "" {
		if version, err := ParseVersion(versionStr); err == nil {
			return version
		}
		vm.logger.WithField("version_string", versionStr).Warn("Invalid version in Accept-Version header")
	}

	if versionStr := r.Header.Get(APIVersionHeader); versionStr != "" {
		if version, err := ParseVersion(versionStr); err == nil {
			return version
		}
		vm.logger.WithField("version_string", versionStr).Warn("Invalid version in X-API-Version header")
	}

	if version := extractVersionFromPath(r.URL.Path); version.Major > 0 {
		return version
	}

	return CurrentVersion
}

// extractVersionFromPath recognizes path segments like /v1/ and /v1.2/,
// padding short forms to full semantic versions.
func extractVersionFromPath(path string) APIVersion {
	for _, part := range strings.Split(path, "/") {
		if !strings.HasPrefix(part, "v") || len(part) < 2 {
			continue
		}

		versionStr := strings.TrimPrefix(part, "v")
		switch strings.Count(versionStr, ".") {
		case 0:
			versionStr += ".0.0"
		case 1:
			versionStr += ".0"
		}

		if version, err := ParseVersion(versionStr); err == nil {
			return version
		}
	}

	return APIVersion{}
}

func (vm *VersionMiddleware) rejectVersion(w http.ResponseWriter, r *http.Request, requested APIVersion) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)

	errorResponse := map[string]interface{}{
		"error": map[string]interface{}{
			"code":    "VERSION_INCOMPATIBLE",
			"message": "API version incompatible",
			"details": map[string]string{
				"requested_version": requested.String(),
				"supported_range":   GetVersionRange(),
			},
		},
	}

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		vm.logger.WithError(err).Error("Failed to encode version error response")
	}

	vm.logger.WithFields(logrus.Fields{
		"requested_version": requested.String(),
		"current_version":   CurrentVersion.String(),
		"path":              r.URL.Path,
	}).Warn("Incompatible API version requested")
}

// GetVersionFromContext extracts the negotiated API version from the
// request context.
func GetVersionFromContext(ctx context.Context) (APIVersion, bool) {
	version, ok := ctx.Value(VersionContextKey).(APIVersion)
	return version, ok
}

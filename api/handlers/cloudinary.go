package handlers

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/disaster-portal/disaster-portal-api/config"
)

// incident photos go in one folder, keyed by upload time to avoid collisions
const imageKeyFormat = "incidentImages/%d_%s"

// maxUploadSize caps incident photos at 10 MB
const maxUploadSize = 10 << 20

// CloudinaryHandler handles incident image uploads
type CloudinaryHandler struct {
	Cld *cloudinary.Cloudinary
}

// UploadImageHandler stores an incident photo and returns its public URL
func (c CloudinaryHandler) UploadImageHandler(w http.ResponseWriter, r *http.Request) {
	if c.Cld == nil {
		config.ErrorStatus("image uploads are not configured", http.StatusServiceUnavailable, w, nil)
		return
	}
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		config.ErrorStatus("failed to parse multipart form", http.StatusBadRequest, w, err)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		config.ErrorStatus("image file is required", http.StatusBadRequest, w, err)
		return
	}
	defer file.Close()

	publicID := fmt.Sprintf(imageKeyFormat, time.Now().Unix(), header.Filename)
	resp, err := c.Cld.Upload.Upload(r.Context(), file, uploader.UploadParams{
		PublicID: publicID,
	})
	if err != nil {
		config.ErrorStatus("failed to upload image", http.StatusBadGateway, w, err)
		return
	}

	b, err := json.Marshal(map[string]string{
		"publicId": resp.PublicID,
		"url":      resp.SecureURL,
	})
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

// GenerateSignature generates a signature for direct browser uploads
func (c CloudinaryHandler) GenerateSignature(w http.ResponseWriter, r *http.Request) {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	uploadPreset := os.Getenv("CLOUDINARY_UPLOAD_PRESET")
	apiSecret := os.Getenv("CLOUDINARY_API_SECRET")

	h := hmac.New(sha1.New, []byte(apiSecret))
	h.Write([]byte("timestamp=" + timestamp + "&upload_preset=" + uploadPreset))
	signature := hex.EncodeToString(h.Sum(nil))

	response := map[string]string{
		"timestamp": timestamp,
		"signature": signature,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

package controllers

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/escape-finder/api-go/config"
	"github.com/escape-finder/api-go/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxPhotoBytes    = 10 * 1024 * 1024
	maxAvatarBytes   = 5 * 1024 * 1024
	maxPhotosPerCall = 10
	uploadURLTTL     = time.Hour
)

var photoTypes = map[string]bool{
	"image/jpeg": true, "image/jpg": true, "image/png": true, "image/webp": true, "image/heic": true,
}

// UploadController signs direct-to-bucket uploads for listing photos and
// avatars. The bucket is Cloudflare R2 reached through the S3 API.
type UploadController struct {
	R2Client *s3.Client
	R2Config *config.R2Config
	Log      *zap.Logger
}

type PresignedURLRequest struct {
	FileName    string `json:"fileName" binding:"required,max=255"`
	ContentType string `json:"contentType" binding:"required"`
	FileSize    int64  `json:"fileSize" binding:"required,min=1"`
}

type PresignedURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
	ExpiresIn int    `json:"expiresIn"`
}

type MultipleUploadRequest struct {
	Files []PresignedURLRequest `json:"files" binding:"required,min=1,dive"`
}

type UploadCompleteRequest struct {
	Key string `json:"key" binding:"required"`
}

func NewUploadController(r2 *config.R2Config, log *zap.Logger) *UploadController {
	uc := &UploadController{R2Config: r2, Log: log}
	if !r2.Configured() {
		log.Info("R2 not configured, uploads disabled")
		return uc
	}
	uc.R2Client = s3.New(s3.Options{
		BaseEndpoint: aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r2.AccountID)),
		Credentials:  credentials.NewStaticCredentialsProvider(r2.AccessKeyID, r2.SecretAccessKey, ""),
		Region:       r2.Region,
	})
	return uc
}

func (uc *UploadController) available(c *gin.Context) bool {
	if uc.R2Client == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Uploads are not available"})
		return false
	}
	return true
}

func (uc *UploadController) GetPresignedURL(c *gin.Context) {
	if !uc.available(c) {
		return
	}
	user := utils.GetUser(c)
	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if msg := validatePhoto(req.ContentType, req.FileSize, maxPhotoBytes); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	resp, err := uc.presign(c.Request.Context(), listingPhotoKey(user.UserID, req.FileName), req.ContentType, uploadURLTTL)
	if err != nil {
		internalError(c, uc.Log, "GetPresignedURL", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    resp,
		Message: "Presigned URL generated successfully",
	})
}

func (uc *UploadController) GetMultiplePresignedURLs(c *gin.Context) {
	if !uc.available(c) {
		return
	}
	user := utils.GetUser(c)
	var req MultipleUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if len(req.Files) > maxPhotosPerCall {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Maximum %d files allowed per upload", maxPhotosPerCall)})
		return
	}

	responses := make([]PresignedURLResponse, 0, len(req.Files))
	for _, f := range req.Files {
		if msg := validatePhoto(f.ContentType, f.FileSize, maxPhotoBytes); msg != "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s: %s", f.FileName, msg)})
			return
		}
		resp, err := uc.presign(c.Request.Context(), listingPhotoKey(user.UserID, f.FileName), f.ContentType, uploadURLTTL)
		if err != nil {
			internalError(c, uc.Log, "GetMultiplePresignedURLs", err)
			return
		}
		responses = append(responses, resp)
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    gin.H{"files": responses},
		Message: "Presigned URLs generated successfully",
	})
}

// ConfirmUpload checks that a signed upload actually reached the bucket.
func (uc *UploadController) ConfirmUpload(c *gin.Context) {
	if !uc.available(c) {
		return
	}
	user := utils.GetUser(c)
	var req UploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !ownsKey(req.Key, user.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}

	info, err := uc.head(c.Request.Context(), req.Key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found in storage"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data: gin.H{
			"key":        req.Key,
			"fileUrl":    uc.publicURL(req.Key),
			"fileSize":   aws.ToInt64(info.ContentLength),
			"uploadedBy": user.UserID,
			"uploadedAt": time.Now(),
		},
		Message: "Upload confirmed successfully",
	})
}

func (uc *UploadController) DeleteFile(c *gin.Context) {
	if !uc.available(c) {
		return
	}
	user := utils.GetUser(c)
	key := strings.TrimPrefix(c.Param("key"), "/")
	if key == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File key is required"})
		return
	}
	if !ownsKey(key, user.UserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	if err := uc.deleteFile(c.Request.Context(), key); err != nil {
		internalError(c, uc.Log, "DeleteFile", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Message: "File deleted successfully"})
}

// GetAvatarTempURL signs an avatar upload before the account exists; the
// file is moved under the profile on registration.
func (uc *UploadController) GetAvatarTempURL(c *gin.Context) {
	if !uc.available(c) {
		return
	}
	var req PresignedURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ContentType == "image/heic" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid avatar file type"})
		return
	}
	if msg := validatePhoto(req.ContentType, req.FileSize, maxAvatarBytes); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	resp, err := uc.presign(c.Request.Context(), tempAvatarKey(req.FileName), req.ContentType, 30*time.Minute)
	if err != nil {
		internalError(c, uc.Log, "GetAvatarTempURL", err)
		return
	}
	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    resp,
		Message: "Temporary avatar upload URL generated successfully",
	})
}

// ConfirmAvatar moves a temporary avatar under the profile and returns its
// public URL, or "" when the move fails.
func (uc *UploadController) ConfirmAvatar(ctx context.Context, tempKey string, profileID uint) string {
	if uc == nil || uc.R2Client == nil || !strings.HasPrefix(tempKey, "temp/avatars/") {
		return ""
	}
	key := avatarKey(profileID, tempKey)
	if err := uc.moveFile(ctx, tempKey, key); err != nil {
		uc.Log.Warn("avatar move failed", zap.String("key", tempKey), zap.Error(err))
		return ""
	}
	return uc.publicURL(key)
}

// OwnsURL reports whether url points at a listing photo uploaded by userID.
func (uc *UploadController) OwnsURL(url string, userID uint) bool {
	if uc == nil || uc.R2Config.PublicURL == "" {
		return false
	}
	prefix := strings.TrimRight(uc.R2Config.PublicURL, "/") + "/"
	if !strings.HasPrefix(url, prefix) {
		return false
	}
	return ownsKey(strings.TrimPrefix(url, prefix), userID)
}

func validatePhoto(contentType string, size, limit int64) string {
	if !photoTypes[strings.ToLower(contentType)] {
		return "Invalid file type"
	}
	if size > limit {
		return "File size exceeds limit"
	}
	return ""
}

func listingPhotoKey(userID uint, fileName string) string {
	return fmt.Sprintf("listings/%d/%d_%s%s", userID, time.Now().Unix(), uuid.New().String(), strings.ToLower(filepath.Ext(fileName)))
}

func tempAvatarKey(fileName string) string {
	return fmt.Sprintf("temp/avatars/%d_%s%s", time.Now().Unix(), uuid.New().String(), strings.ToLower(filepath.Ext(fileName)))
}

func avatarKey(profileID uint, tempKey string) string {
	return fmt.Sprintf("profiles/%d/avatar/%d_avatar%s", profileID, time.Now().Unix(), filepath.Ext(tempKey))
}

// ownsKey checks the listings/{userID}/... key layout.
func ownsKey(key string, userID uint) bool {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "listings" {
		return false
	}
	return parts[1] == fmt.Sprintf("%d", userID)
}

func (uc *UploadController) publicURL(key string) string {
	return fmt.Sprintf("%s/%s", strings.TrimRight(uc.R2Config.PublicURL, "/"), key)
}

func (uc *UploadController) presign(ctx context.Context, key, contentType string, ttl time.Duration) (PresignedURLResponse, error) {
	presigner := s3.NewPresignClient(uc.R2Client)
	req, err := presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(uc.R2Config.BucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = ttl
	})
	if err != nil {
		return PresignedURLResponse{}, fmt.Errorf("presign %s: %w", key, err)
	}
	return PresignedURLResponse{
		UploadURL: req.URL,
		FileURL:   uc.publicURL(key),
		Key:       key,
		ExpiresIn: int(ttl.Seconds()),
	}, nil
}

func (uc *UploadController) head(ctx context.Context, key string) (*s3.HeadObjectOutput, error) {
	return uc.R2Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(uc.R2Config.BucketName),
		Key:    aws.String(key),
	})
}

func (uc *UploadController) deleteFile(ctx context.Context, key string) error {
	_, err := uc.R2Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(uc.R2Config.BucketName),
		Key:    aws.String(key),
	})
	return err
}

func (uc *UploadController) moveFile(ctx context.Context, sourceKey, destKey string) error {
	_, err := uc.R2Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(uc.R2Config.BucketName),
		CopySource: aws.String(fmt.Sprintf("%s/%s", uc.R2Config.BucketName, sourceKey)),
		Key:        aws.String(destKey),
	})
	if err != nil {
		return err
	}
	return uc.deleteFile(ctx, sourceKey)
}

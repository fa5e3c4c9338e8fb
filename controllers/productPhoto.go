package controllers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"backend/config"

	"github.com/gin-gonic/gin"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/nfnt/resize"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	maxFileSize   = 5 * 1024 * 1024
	maxImageWidth = 1200
	previewSize   = 300
)

var (
	s3Client *minio.Client
	s3Once   sync.Once
)

// getS3Client возвращает клиент S3, если он настроен через окружение,
// иначе nil и фото сохраняются локально в ./uploads.
func getS3Client() *minio.Client {
	s3Once.Do(func() {
		endpoint := os.Getenv("S3_ENDPOINT")
		if endpoint == "" {
			return
		}
		client, err := minio.New(endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(os.Getenv("S3_ACCESS_KEY"), os.Getenv("S3_SECRET_KEY"), ""),
			Secure: true,
		})
		if err != nil {
			log.Printf("Failed to initialize S3 client: %v", err)
			return
		}
		s3Client = client
	})
	return s3Client
}

func decodeImage(file *multipart.FileHeader) (image.Image, error) {
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %v", err)
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == ".png" {
		return png.Decode(src)
	}
	return jpeg.Decode(src)
}

func storeJPEG(ctx context.Context, img image.Image, name string) (string, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return "", fmt.Errorf("failed to encode image: %v", err)
	}

	if client := getS3Client(); client != nil {
		bucket := os.Getenv("S3_BUCKET")
		_, err := client.PutObject(ctx, bucket, name, bytes.NewReader(buf.Bytes()), int64(buf.Len()),
			minio.PutObjectOptions{ContentType: "image/jpeg"})
		if err != nil {
			return "", fmt.Errorf("failed to upload to S3: %v", err)
		}
		return fmt.Sprintf("https://%s/%s/%s", os.Getenv("S3_ENDPOINT"), bucket, name), nil
	}

	dir := "./uploads/products"
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return "", fmt.Errorf("failed to create upload directory: %v", err)
		}
	}
	fullPath := filepath.Join(dir, name)
	if err := os.WriteFile(fullPath, buf.Bytes(), 0644); err != nil {
		return "", fmt.Errorf("failed to save image: %v", err)
	}
	return "/uploads/products/" + name, nil
}

// SaveProductPhoto принимает фото товара, жмёт оригинал до разумной ширины
// и делает превью для списков.
func SaveProductPhoto(c *gin.Context) {
	prodID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Photo file is required"})
		return
	}
	if file.Size > maxFileSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File size exceeds the 5MB limit"})
		return
	}

	img, err := decodeImage(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported image format"})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	full := resize.Thumbnail(maxImageWidth, maxImageWidth, img, resize.Lanczos3)
	preview := resize.Thumbnail(previewSize, previewSize, img, resize.Lanczos3)

	stamp := time.Now().Unix()
	photoURL, err := storeJPEG(ctx, full, fmt.Sprintf("%s_%d.jpg", prodID.Hex(), stamp))
	if err != nil {
		log.Printf("Failed to store product photo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}
	previewURL, err := storeJPEG(ctx, preview, fmt.Sprintf("%s_%d_preview.jpg", prodID.Hex(), stamp))
	if err != nil {
		log.Printf("Failed to store product photo preview: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save photo"})
		return
	}

	result, err := config.ProductCollection.UpdateOne(ctx,
		bson.M{"_id": prodID},
		bson.M{"$set": bson.M{"photourl": photoURL, "photopreviewurl": previewURL}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Серверда хатолик юз берди"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Маҳсулот топилмади"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"photourl": photoURL, "photopreviewurl": previewURL})
}

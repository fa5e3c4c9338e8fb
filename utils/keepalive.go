package utils

import (
	"log"
	"net/http"
	"os"
	"time"
)

// KeepAlive пингует собственный адрес, чтобы хостинг не усыплял процесс.
func KeepAlive() {
	url := os.Getenv("KEEPALIVE_URL")
	if url == "" {
		return
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		log.Printf("Keep-alive ping failed: %v", err)
		return
	}
	resp.Body.Close()
}

package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"qrpresence/internal/attendance"
	"qrpresence/internal/config"
	"qrpresence/internal/metrics"
	"qrpresence/internal/notify"
	"qrpresence/internal/queue"
	"qrpresence/internal/store"
)

// Worker consumes notification jobs, delivers the parent SMS, and flips
// parent_notified on the record. A delivery failure is logged and the job
// dropped; the attendance record itself is never rolled back.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	// A memory queue lives inside the API process; a fresh one here would
	// never see its jobs.
	if cfg.QueueBackend == "memory" {
		log.Fatal("QUEUE_BACKEND=memory is single-process only; the worker requires redis")
	}
	q := queue.NewRedisQueue(redisClient.Client, "attendance:notify")

	repo := attendance.NewRepository(db.Client)
	sms := notify.NewSMSClient(cfg.SMSGatewayURL, cfg.SMSSkip)
	collector := metrics.NewCollector(prometheus.DefaultRegisterer)

	if !cfg.SMSSkip {
		if err := sms.Health(ctx); err != nil {
			log.Printf("WARNING: sms gateway not available: %v", err)
		} else {
			log.Println("sms gateway connected")
		}
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		log.Printf("worker metrics on :%s", cfg.WorkerPort)
		if err := http.ListenAndServe(":"+cfg.WorkerPort, mux); err != nil {
			log.Printf("worker metrics server stopped: %v", err)
		}
	}()

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for notification jobs...")
	for msg := range messages {
		if msg.Type != "notify" {
			continue
		}

		var job attendance.NotificationJob
		if err := json.Unmarshal(msg.Body, &job); err != nil {
			log.Printf("bad notification job: %v", err)
			collector.RecordNotification("invalid")
			continue
		}

		message := notify.ArrivalMessage(job.StudentName, job.Section)
		if err := sms.Send(ctx, job.Phone, message); err != nil {
			log.Printf("notification for record %s failed: %v", job.RecordID, err)
			collector.RecordNotification("failed")
			continue
		}

		if err := repo.MarkParentNotified(ctx, job.RecordID); err != nil {
			log.Printf("mark notified failed for record %s: %v", job.RecordID, err)
		}
		collector.RecordNotification("sent")
		log.Printf("parent notified for record %s", job.RecordID)
	}

	log.Println("worker stopped")
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"qrpresence/internal/attendance"
	"qrpresence/internal/config"
	"qrpresence/internal/feed"
	"qrpresence/internal/store"
	"qrpresence/internal/viewer"
)

// Terminal attendance dashboard: one initial listing, then live inserts
// from the change feed as staff scan students.
func main() {
	studentID := flag.String("student", "", "show only this student's history")
	limit := flag.Int("limit", 0, "max records for the all-students view")
	flag.Parse()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)
	insertFeed := feed.NewRedisFeed(redisClient.Client, feed.Channel)
	repo := attendance.NewRepository(db.Client)

	scope := viewer.All(*limit)
	if *studentID != "" {
		scope = viewer.Self(*studentID)
	}

	v := viewer.New(repo, insertFeed, scope)
	v.OnInsert = func(rec attendance.Record) {
		printRecord(rec, "live")
	}
	defer v.Close()

	if err := v.Load(ctx); err != nil {
		var le *viewer.LoadError
		if errors.As(err, &le) {
			log.Printf("initial load failed, starting empty: %v", le.Err)
		} else {
			log.Fatalf("load failed: %v", err)
		}
	}
	for _, rec := range v.Records() {
		printRecord(rec, "")
	}

	if err := v.Watch(ctx); err != nil {
		log.Fatalf("change feed subscribe failed: %v", err)
	}
	log.Println("watching for new scans, ctrl-c to exit")

	<-ctx.Done()
}

func printRecord(rec attendance.Record, tag string) {
	notified := " "
	if rec.ParentNotified {
		notified = "*"
	}
	if tag != "" {
		tag = " [" + tag + "]"
	}
	fmt.Printf("%s  %-20s %-12s %s%s%s\n",
		rec.ScannedAt.Local().Format("2006-01-02 15:04:05"),
		rec.StudentName, rec.Section, rec.StudentID, notified, tag)
}

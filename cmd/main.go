package main

import (
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"rtspd/internal/rtspd"
)

func main() {
	configPath := flag.String("config", rtspd.DefaultConfigPath, "path to the yaml config file")
	flag.Parse()

	config, err := rtspd.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "path", *configPath, "err", err)
		os.Exit(1)
	}
	rtspd.InitLogger(config, os.Stdout)

	server := rtspd.NewServer(config)

	// 서버 시작
	if err := server.Start(); err != nil {
		slog.Error("Failed to start server", "err", err)
		os.Exit(1)
	}

	slog.Info("RTSP Server started", "port", server.RTSPPort(), "http", server.HTTPAddr())

	// 시그널 수신을 위한 채널 생성
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	slog.Info("Received signal, shutting down server", "signal", sig)

	server.Stop()
	slog.Info("Server shutdown complete")
}

package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"petspa-text-bot/internal/bot"
	"petspa-text-bot/internal/config"
	"petspa-text-bot/internal/database"
	"petspa-text-bot/internal/flow"
	"petspa-text-bot/internal/gemini"
	"petspa-text-bot/internal/logger"
	"petspa-text-bot/internal/script"
	"petspa-text-bot/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"gopkg.in/fsnotify.v1"
)

func main() {
	var (
		cnf = &config.Conf{}

		configFile = flag.String("config", "./config/config.yml", "Usage: -config=<config_file>")
		logConfig  = flag.String("logs", "./config/logger.yml", "Usage: -logs=<logger_config_file>")
		debug      = flag.Bool("debug", false, "Print debug information on stderr")
	)

	flag.Parse()

	// secrets live in .env during local runs; absence is fine
	_ = godotenv.Load()

	config.GetConfig(*configFile, cnf)
	cnf.RunInDebug = *debug

	logFile := logger.InitLogger(*debug, logConfig)
	if logFile != nil {
		defer logFile.Close()
	}
	logger.Info("Application starting...")

	if *debug {
		logger.Debug("Config:", cnf)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	sc := script.InitScript(cnf.Script)
	if err := flow.CheckGraph(sc); err != nil {
		logger.Crit("Broken dialogue graph:", err)
	}

	cache := database.ConnectInMemoryCache()
	sb := supabase.New(cnf.Supabase.URL, cnf.Supabase.AnonKey)
	ai, err := gemini.New(context.Background(), cnf.Gemini.APIKey, cnf.Gemini.Model, sc.AI.SystemInstruction)
	if err != nil {
		logger.Crit("Unable to create Gemini client:", err)
	}

	app := gin.Default()
	app.Use(
		config.Inject(bot.KeyConfig, cnf),
		database.InjectInMemoryCache(bot.KeyCache, cache),
		script.InjectScript(bot.KeyScript, sc),
		supabase.Inject(bot.KeySupabase, sb),
		gemini.Inject(bot.KeyGemini, ai),
	)

	bot.Routes(app)

	srv := &http.Server{
		Addr:    cnf.Server.Listen,
		Handler: app,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Listen: %s\n", err)
		}
	}()

	// watch the script file for copy changes
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Crit(err)
	}
	defer watcher.Close()
	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				logger.Debug("watch event:", event)
				if event.Op&fsnotify.Write == fsnotify.Write && event.Name == cnf.Script {
					if err := sc.UpdateScript(cnf.Script); err != nil {
						logger.Warning("Invalid script file, keeping the previous copy:", err)
						continue
					}
					if err := flow.CheckGraph(sc); err != nil {
						logger.Warning("Updated script breaks the dialogue graph:", err)
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warning("watch error:", err)
			}
		}
	}()
	if err := watcher.Add(path.Dir(cnf.Script)); err != nil {
		logger.Crit(err)
	}

	logger.Info("Application started")

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGHUP, syscall.SIGINT)

	quit := make(chan int)

	go func() {
		for {
			sig := <-signals
			switch sig {
			// kill -SIGHUP XXXX
			// kill -SIGINT XXXX or Ctrl+c
			case syscall.SIGHUP, syscall.SIGINT:
				logger.Info("Catch OS signal! Exiting...")

				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					log.Fatal("App forced to shutdown:", err)
				}

				logger.Info("Application stopped correctly!")

				quit <- 0
			default:
				logger.Warning("Unknown signal")
			}
		}
	}()

	code := <-quit

	os.Exit(code)
}

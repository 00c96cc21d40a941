// Package main provides the author console: an interactive shell that runs
// a dialogue rule file against an in-memory world, so dialogue can be
// exercised without a game server.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dialogue/internal/config"
	"github.com/cory-johannsen/dialogue/internal/host"
	"github.com/cory-johannsen/dialogue/internal/npcserver"
	"github.com/cory-johannsen/dialogue/internal/observability"
	"github.com/cory-johannsen/dialogue/internal/scripting"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	ruleFile := flag.String("rules", "", "rule file to converse with, relative to the dialogue root")
	player := flag.String("player", "Ada", "player name")
	playerLevel := flag.Int("level", 1, "player level")
	npc := flag.String("npc", "Gorlak", "NPC name")
	flag.Parse()

	if *ruleFile == "" {
		log.Fatal("missing -rules: name a rule file to converse with")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting dialogue console",
		zap.String("rules", *ruleFile),
		zap.String("root", cfg.Dialog.Root),
	)

	world := host.NewWorld(host.Calendar{
		MonthsPerYear: cfg.Calendar.MonthsPerYear,
		WeeksPerMonth: cfg.Calendar.WeeksPerMonth,
		DaysPerWeek:   cfg.Calendar.DaysPerWeek,
		HoursPerDay:   cfg.Calendar.HoursPerDay,
	})
	character, err := world.AddParticipant(*player, *playerLevel)
	if err != nil {
		logger.Fatal("adding player", zap.Error(err))
	}
	speaker, err := world.AddParticipant(*npc, 1)
	if err != nil {
		logger.Fatal("adding NPC", zap.Error(err))
	}

	scripts := scripting.NewManager(logger)
	scripts.Say = func(text string) { world.Say(speaker, text) }
	scripts.GetFlag = func(owner, key string) string {
		if owner == speaker.Name() {
			return speaker.ReadKey(key)
		}
		return character.ReadKey(key)
	}
	scripts.SetFlag = func(owner, key, value string) {
		target := host.Participant(character)
		if owner == speaker.Name() {
			target = speaker
		}
		if err := target.WriteKey(key, value); err != nil {
			logger.Error("script flag write failed", zap.String("owner", owner), zap.Error(err))
		}
	}
	scripts.CountItem = func(owner, name string) int {
		if owner == speaker.Name() {
			return world.CountItem(speaker, name)
		}
		return world.CountItem(character, name)
	}
	if info, err := os.Stat(cfg.Script.Dir); err == nil && info.IsDir() {
		if err := scripts.LoadGlobal(cfg.Script.Dir, cfg.Script.InstructionLimit); err != nil {
			logger.Fatal("loading scripts", zap.Error(err))
		}
	}

	handler, err := npcserver.NewHandler(npcserver.Config{
		Root:     cfg.Dialog.Root,
		Services: world.Services(),
		Scripts:  scripts,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("building handler", zap.Error(err))
	}

	logger.Info("console ready", zap.Duration("startup", time.Since(start)))
	fmt.Printf("Talking to %s as %s. Type lines of dialogue; Ctrl-D exits.\n", *npc, *player)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("%s> ", *player)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		consumed, err := handler.HandleSay(npcserver.SpeechEvent{
			Character: character,
			Speaker:   speaker,
			RuleFile:  *ruleFile,
			Message:   line,
		})
		if err != nil {
			logger.Error("turn failed", zap.Error(err))
			continue
		}
		if !consumed {
			fmt.Printf("%s ignores you.\n", *npc)
			continue
		}
		for _, said := range world.DrainSpeech() {
			fmt.Printf("%s says: %s\n", said.Speaker, said.Text)
		}
		if replies := world.DrainReplies(); len(replies) > 0 {
			fmt.Println("You could say:")
			for _, r := range replies {
				fmt.Printf("  %-12s %s\n", r.Word, r.Text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Fatal("reading input", zap.Error(err))
	}
	fmt.Println()
}

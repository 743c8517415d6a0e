package rsk

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"

	"github.com/ankurkotwal/remoshock/rsk/common"
	"github.com/ankurkotwal/remoshock/rsk/evdevpad"
	"github.com/ankurkotwal/remoshock/rsk/gamepad"
	"github.com/ankurkotwal/remoshock/rsk/overlay"
	"github.com/ankurkotwal/remoshock/rsk/remote"
	"github.com/ankurkotwal/remoshock/rsk/ruleset"
)

// App wires the gamepad session, the ruleset and the remote device together
type App struct {
	config  *common.Config
	log     *common.Logger
	session *overlay.Session
	client  *remote.Client
}

// TokenHeader carries the caller token. The token query parameter works too.
const TokenHeader = "X-Remoshock-Token"

// NewApp creates the app for a loaded configuration
func NewApp(config *common.Config, log *common.Logger) (*App, error) {
	registry, err := gamepad.NewRegistry(config.Mapping, config.MaxButtons, log)
	if err != nil {
		return nil, fmt.Errorf("mapping: %w", err)
	}
	client := remote.NewClient(&config.Remote, log)
	var punisher ruleset.Punisher
	if len(config.Remote.BaseURL) > 0 {
		punisher = &remote.Punisher{Client: client,
			Punishment: remote.PunishmentFromConfig(&config.Ruleset)}
	} else {
		log.Msg("No remote device configured, violations are only logged")
	}
	if len(config.Remote.Token) == 0 {
		log.Err("No token configured, commands and rounds are refused")
	}
	stay := ruleset.NewStay(registry, punisher, &config.Ruleset,
		rand.New(rand.NewSource(time.Now().UnixNano())), log)

	return &App{
		config:  config,
		log:     log,
		session: overlay.NewSession(registry, stay, config.MaxButtons, log),
		client:  client,
	}, nil
}

// Session returns the gamepad session
func (a *App) Session() *overlay.Session {
	return a.session
}

// Run runs the game loop, and the evdev reader if configured, until ctx is
// done. Without the evdev device the overlay page can still connect a gamepad.
// Returns once the round is stopped and running punishments are done.
func (a *App) Run(ctx context.Context) {
	if a.config.Gamepad.Source == common.SourceEvdev {
		if reader, err := evdevpad.Open(a.config.Gamepad.Device, a.log); err != nil {
			a.log.Err("Unable to open gamepad %s", err)
		} else {
			go func() {
				defer reader.Close()
				a.session.Connect(reader.State())
				err := reader.Run(ctx, a.session.Update)
				a.session.Disconnect()
				if err != nil && !errors.Is(err, context.Canceled) {
					a.log.Err("Gamepad reader stopped %s", err)
				}
			}()
		}
	}
	interval := time.Duration(a.config.Gamepad.PollInterval) * time.Millisecond
	a.session.Run(ctx, interval)
	a.session.Shutdown()
}

// Router creates the HTTP handlers. Debug mode adds pprof and test routes.
func (a *App) Router(debugMode bool) *gin.Engine {
	if !debugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	if debugMode {
		pprof.Register(router)
	}

	router.LoadHTMLGlob("resources/www/templates/*.html")
	router.StaticFile("/main.css", "resources/www/static/main.css")
	router.StaticFile("/gamepad.js", "resources/www/static/gamepad.js")
	router.StaticFile("/remote.js", "resources/www/static/remote.js")

	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/gamepad")
	})
	router.GET("/gamepad", func(c *gin.Context) {
		c.HTML(http.StatusOK, "gamepad.html", a.page(gin.H{
			"Slots": a.config.MaxButtons,
		}))
	})
	router.GET("/remote", func(c *gin.Context) {
		actions := make([]gin.H, len(remote.Actions))
		for i, action := range remote.Actions {
			actions[i] = gin.H{"Name": string(action), "Label": action.Label()}
		}
		c.HTML(http.StatusOK, "remote.html", a.page(gin.H{"Actions": actions}))
	})
	router.GET("/log", func(c *gin.Context) {
		c.HTML(http.StatusOK, "log.html", a.page(gin.H{"Logs": a.log.Snapshot()}))
	})

	api := router.Group("/api")
	api.GET("/gamepad", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.session.Display())
	})
	api.GET("/gamepad/ws", gin.WrapF(overlay.WebsocketHandler(a.session, a.log)))
	api.GET("/gamepad/overlay.jpg", func(c *gin.Context) {
		image, err := overlay.RenderImage(a.session.Display(), &a.config.Overlay)
		if err != nil {
			a.log.Err("Error rendering overlay %s", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Data(http.StatusOK, "image/jpeg", image)
	})
	api.GET("/receivers", a.receivers)

	control := api.Group("", a.authorize)
	control.POST("/gamepad/start", func(c *gin.Context) {
		if err := a.session.Start(time.Now()); err != nil {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, a.session.Display())
	})
	control.POST("/gamepad/stop", func(c *gin.Context) {
		a.session.Stop()
		c.JSON(http.StatusOK, a.session.Display())
	})
	control.POST("/command", a.command)
	control.POST("/trigger", func(c *gin.Context) {
		err := a.client.Trigger(c.Request.Context(),
			remote.PunishmentFromConfig(&a.config.Ruleset))
		if err != nil {
			a.log.Err("Trigger failed %s", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	if debugMode {
		router.GET("/test/state", a.testState)
	}
	return router
}

// authorize lets only callers holding the device token through. Without a
// configured token every call is refused.
func (a *App) authorize(c *gin.Context) {
	token := c.GetHeader(TokenHeader)
	if len(token) == 0 {
		token = c.Query("token")
	}
	expected := a.config.Remote.Token
	if len(expected) == 0 || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
		a.log.Err("Refused %s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP())
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	c.Next()
}

func (a *App) page(h gin.H) gin.H {
	h["Title"] = a.config.AppName
	h["Version"] = a.config.Version
	return h
}

// receivers prefers the list published by the device over the local one
func (a *App) receivers(c *gin.Context) {
	if len(a.config.Remote.BaseURL) > 0 {
		receivers, err := a.client.Receivers(c.Request.Context())
		if err == nil {
			c.JSON(http.StatusOK, receivers)
			return
		}
		a.log.Err("Unable to fetch receivers, using %s. %s", a.config.ReceiversFile, err)
	}
	receivers := a.config.Receivers
	if receivers == nil {
		receivers = []common.Receiver{}
	}
	c.JSON(http.StatusOK, receivers)
}

func (a *App) command(c *gin.Context) {
	var cmd remote.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	err := a.client.Command(c.Request.Context(), cmd)
	switch {
	case err == nil:
		c.Status(http.StatusNoContent)
	case errors.Is(err, remote.ErrUnknownAction), errors.Is(err, remote.ErrInvalidCommand):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		a.log.Err("Command failed %s", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}

// testState injects a synthetic snapshot, e.g. /test/state?buttons=0,2&axes=0,0,0,0,-1
// presses buttons 0 and 2 and pushes axis 4 negative. The game loop evaluates it.
func (a *App) testState(c *gin.Context) {
	buttons, err := parseList(c.Query("buttons"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	axes, err := parseList(c.Query("axes"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	state := gamepad.State{ID: "Test Gamepad", Buttons: make([]bool, 16),
		Axes: make([]float64, 8)}
	for _, b := range buttons {
		if b < 0 || b != math.Trunc(b) || int(b) >= len(state.Buttons) {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("button %v", b)})
			return
		}
		state.Buttons[int(b)] = true
	}
	copy(state.Axes, axes)

	// Newer than whatever the connected gamepad sent last
	state.Timestamp = math.Floor(a.session.Timestamp()) + 1
	a.session.Update(state)
	c.JSON(http.StatusOK, a.session.Display())
}

func parseList(list string) ([]float64, error) {
	var values []float64
	for _, field := range strings.Split(list, ",") {
		if len(field) == 0 {
			continue
		}
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, err
		}
		values = append(values, value)
	}
	return values, nil
}

// GetServer loads the configuration, starts the game loop until ctx is done
// and returns the router with the address to listen on. done is closed once
// the game loop has shut down.
func GetServer(ctx context.Context, debugMode bool, configFile string) (
	router *gin.Engine, port string, done <-chan struct{}) {
	log := common.NewLog()
	config, err := common.LoadConfig(configFile, log)
	if err != nil {
		log.Fatal("Unable to load config %s", err)
	}
	log.SetLimit(config.MaxLogEntries)

	app, err := NewApp(config, log)
	if err != nil {
		log.Fatal("Unable to create gamepad %s", err)
	}
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		app.Run(ctx)
	}()

	// Run on port 8080 unless PORT varilable specified
	port = os.Getenv("PORT")
	if len(port) == 0 {
		port = "8080"
	}
	return app.Router(debugMode), fmt.Sprintf(":%s", port), finished
}

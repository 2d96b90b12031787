package cmd

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vecsim/vecsim/sim/store"
)

var (
	serveDBPath string // SQLite file written by `run --db`
	serveAddr   string // Listen address
)

// serveCmd exposes stored run summaries read-only over HTTP
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve stored run summaries over HTTP",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		st, err := store.Open(serveDBPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer st.Close()

		logrus.Infof("Serving %s on %s", serveDBPath, serveAddr)
		if err := newRouter(st.Repository()).Run(serveAddr); err != nil {
			logrus.Fatalf("Server stopped: %v", err)
		}
	},
}

// newRouter builds the results API: GET /runs and GET /runs/:id.
func newRouter(repo *store.Repository) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "OPTIONS"}
	router.Use(cors.New(config))

	router.GET("/runs", func(c *gin.Context) {
		f := store.Filter{Policy: c.Query("policy")}
		if d := c.Query("devices"); d != "" {
			n, err := strconv.Atoi(d)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "devices must be a positive integer"})
				return
			}
			f.Devices = n
		}
		runs, err := repo.List(f)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, runs)
	})

	router.GET("/runs/:id", func(c *gin.Context) {
		run, err := repo.Get(c.Param("id"))
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, run)
	})
	return router
}

func init() {
	serveCmd.Flags().StringVar(&serveDBPath, "db", "vecsim.db", "SQLite file with stored run summaries")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
}

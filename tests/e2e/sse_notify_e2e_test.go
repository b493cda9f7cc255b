package e2e

import (
	"context"
	"net/http"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/rjsadow/ssehub/internal/client"
	"github.com/rjsadow/ssehub/internal/wire"
)

var _ = Describe("Broadcast notifications", func() {
	It("delivers a broadcast event to a connected client", func() {
		c := client.New(client.Config{BaseURL: baseURL + "/api/sse"})

		var mu sync.Mutex
		var received wire.Record
		c.Subscribe("greeting", func(rec wire.Record) {
			mu.Lock()
			received = rec
			mu.Unlock()
		})

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c.Connect(ctx)
		defer c.Disconnect()

		Eventually(func() client.State {
			return c.State()
		}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(Equal(client.StateConnected))

		Eventually(func() string {
			return c.ConnectionID()
		}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).ShouldNot(BeEmpty())

		resp, err := postJSON(baseURL+"/api/sse/notifications", map[string]any{
			"eventType": "greeting",
			"data":      map[string]string{"msg": "hello"},
		})
		Expect(err).NotTo(HaveOccurred())
		defer resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		Eventually(func() string {
			mu.Lock()
			defer mu.Unlock()
			return received.Event
		}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(Equal("greeting"))
	})

	It("reports the new connection in stats", func() {
		c := client.New(client.Config{BaseURL: baseURL + "/api/sse"})
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		c.Connect(ctx)
		defer c.Disconnect()

		Eventually(func() client.State {
			return c.State()
		}).WithTimeout(5 * time.Second).WithPolling(50 * time.Millisecond).Should(Equal(client.StateConnected))

		var stats struct {
			Stats struct {
				TotalConnections int `json:"totalConnections"`
			} `json:"stats"`
		}
		Eventually(func() int {
			if _, err := getJSON(baseURL+"/api/sse/stats", &stats); err != nil {
				return 0
			}
			return stats.Stats.TotalConnections
		}).WithTimeout(5 * time.Second).WithPolling(100 * time.Millisecond).Should(BeNumerically(">=", 1))
	})
})

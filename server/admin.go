package server

import (
	"encoding/json"
	"net/http"
)

// HandleAdminConfig 提供运行参数的读取与更新（热更新基本规则）
// GET /admin/config          返回当前配置
// POST /admin/config         以 JSON 载荷更新部分字段
// 可调项：MOVE 限速、各地图出生点
func (g *Gateway) HandleAdminConfig(w http.ResponseWriter, r *http.Request) {
	type spawnEntry struct {
		MapID int64     `json:"mapId"`
		X     float64   `json:"x"`
		Y     float64   `json:"y"`
		D     Direction `json:"d"`
	}
	type cfg struct {
		MoveRatePerSec *float64     `json:"moveRatePerSec,omitempty"`
		MoveBurst      *int         `json:"moveBurst,omitempty"`
		Spawns         []spawnEntry `json:"spawns,omitempty"`
	}

	switch r.Method {
	case http.MethodGet:
		rateVal, burst := g.moveLimits.get()
		overrides := g.spawns.Overrides()
		spawns := make([]spawnEntry, 0, len(overrides))
		for mapID, sp := range overrides {
			spawns = append(spawns, spawnEntry{MapID: mapID, X: sp.X, Y: sp.Y, D: sp.D})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"moveRatePerSec": rateVal,
			"moveBurst":      burst,
			"defaultSpawn":   g.spawns.Default(),
			"spawns":         spawns,
		})
		return
	case http.MethodPost:
		var body cfg
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		rateVal, burst := g.moveLimits.get()
		if body.MoveRatePerSec != nil {
			rateVal = *body.MoveRatePerSec
		}
		if body.MoveBurst != nil {
			burst = *body.MoveBurst
		}
		g.moveLimits.set(rateVal, burst)
		for _, sp := range body.Spawns {
			if !sp.D.Valid() {
				http.Error(w, "invalid spawn direction", http.StatusBadRequest)
				return
			}
			g.spawns.Set(sp.MapID, Spawn{X: sp.X, Y: sp.Y, D: sp.D})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
		Log.Infof("config updated: moveRate=%.1f burst=%d spawns=%d", rateVal, burst, len(body.Spawns))
		return
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
}

// HandleMetrics 输出运行指标
// GET /metrics
func (g *Gateway) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(g.metrics.Snapshot())
}

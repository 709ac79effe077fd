package connection

import (
	"sync"
	"time"

	"github.com/skyezerfox/mcstatus/constants"
	"github.com/skyezerfox/mcstatus/models"
	"github.com/skyezerfox/mcstatus/protocol"
)

// Manager queries a set of configured servers.
type Manager struct {
	sync.Mutex
	Servers []*models.ServerConfig

	timeout time.Duration

	queryJava    func(models.ServerAddress, time.Duration) (*models.ServerStatus, error)
	queryBedrock func(models.ServerAddress, time.Duration) (*models.BedrockStatus, error)
}

// NewManager creates a manager whose queries use timeout.
func NewManager(timeout time.Duration) *Manager {
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	return &Manager{
		Servers:      make([]*models.ServerConfig, 0),
		timeout:      timeout,
		queryJava:    protocol.QueryJava,
		queryBedrock: protocol.QueryBedrock,
	}
}

// AddServer adds a server to this manager. A missing edition means java and
// a zero port means the default port of the edition.
func (m *Manager) AddServer(s *models.ServerConfig) {
	if s.Edition == "" {
		s.Edition = models.EditionJava
	}
	if s.Port == 0 {
		s.Port = defaultPort(s.Edition)
	}
	m.Lock()
	defer m.Unlock()
	m.Servers = append(m.Servers, s)
}

// GetServerCount returns the number of servers currently monitored.
func (m *Manager) GetServerCount() int {
	m.Lock()
	defer m.Unlock()
	return len(m.Servers)
}

// QueryAll queries every server concurrently. Reports are returned in the
// order the servers were added.
func (m *Manager) QueryAll() []Report {
	m.Lock()
	servers := make([]*models.ServerConfig, len(m.Servers))
	copy(servers, m.Servers)
	m.Unlock()

	reports := make([]Report, len(servers))
	var wg sync.WaitGroup
	for i, s := range servers {
		wg.Add(1)
		go func(i int, s *models.ServerConfig) {
			defer wg.Done()
			reports[i] = m.query(s)
		}(i, s)
	}
	wg.Wait()
	return reports
}

func defaultPort(edition string) uint16 {
	if edition == models.EditionBedrock {
		return constants.DefaultBedrockPort
	}
	return constants.DefaultJavaPort
}

package services

import (
	"context"
	"fmt"
	"sync"

	"authhub/pkg/logger"

	"github.com/robfig/cron/v3"
)

// InvitationScheduler 定时清理过期邀请
type InvitationScheduler struct {
	invitations *InvitationService
	cron        *cron.Cron
	running     bool
	mu          sync.Mutex
}

func NewInvitationScheduler(invitations *InvitationService) *InvitationScheduler {
	return &InvitationScheduler{
		invitations: invitations,
		cron:        cron.New(),
	}
}

// Start 启动调度器，每小时执行一次清理
func (s *InvitationScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("调度器已经在运行")
	}

	_, err := s.cron.AddFunc("@hourly", func() {
		if _, err := s.invitations.CleanupExpired(context.Background()); err != nil {
			logger.GetLogger().Errorf("清理过期邀请失败: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加定时任务失败: %v", err)
	}

	s.cron.Start()
	s.running = true
	logger.GetLogger().Info("启动邀请清理调度器")
	return nil
}

// Stop 停止调度器
func (s *InvitationScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.cron.Stop()
	s.running = false
	logger.GetLogger().Info("邀请清理调度器已停止")
}

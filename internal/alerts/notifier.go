package alerts

import "github.com/gen2brain/beeep"

// SystemNotifier - системные (OS) уведомления и звуковой сигнал.
// Отказ разрешения или среды без рабочего стола не фатален:
// вызывающий глотает ошибку, тост все равно показывается.
type SystemNotifier interface {
	Notify(title, body string, requireInteraction bool) error
	Beep() error
}

type desktopNotifier struct {
	icon string
}

func NewDesktopNotifier(icon string) SystemNotifier {
	return &desktopNotifier{icon: icon}
}

func (n *desktopNotifier) Notify(title, body string, requireInteraction bool) error {
	// beeep не умеет requireInteraction напрямую; срочные уведомления
	// идут через Alert - он настойчивее и со звуком системы
	if requireInteraction {
		return beeep.Alert(title, body, n.icon)
	}
	return beeep.Notify(title, body, n.icon)
}

func (n *desktopNotifier) Beep() error {
	return beeep.Beep(beeep.DefaultFreq, beeep.DefaultDuration)
}

// noopNotifier - для окружений без рабочего стола (ALERTS_DESKTOP=false).
type noopNotifier struct{}

func NewNoopNotifier() SystemNotifier { return &noopNotifier{} }

func (n *noopNotifier) Notify(string, string, bool) error { return nil }
func (n *noopNotifier) Beep() error                       { return nil }

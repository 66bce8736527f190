package pipeline

import "time"

// IntervalLimiter выдерживает паузу между обработкой кандидатов,
// чтобы не упереться в лимиты внешних API. Первый вызов проходит
// без ожидания.
type IntervalLimiter struct {
	interval time.Duration
	sleep    func(time.Duration)
	started  bool
}

// NewIntervalLimiter создаёт ограничитель. sleep == nil означает time.Sleep.
func NewIntervalLimiter(interval time.Duration, sleep func(time.Duration)) *IntervalLimiter {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &IntervalLimiter{interval: interval, sleep: sleep}
}

// Wait блокирует до истечения паузы.
func (l *IntervalLimiter) Wait() {
	if !l.started {
		l.started = true
		return
	}
	if l.interval > 0 {
		l.sleep(l.interval)
	}
}

// Reset сбрасывает ограничитель перед новым запуском.
func (l *IntervalLimiter) Reset() {
	l.started = false
}

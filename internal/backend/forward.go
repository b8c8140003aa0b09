package backend

import "context"

// Forward stamps everything read from in and sends it to out, calling wake
// after each send. Running a single Forward per source keeps serials
// increasing in channel order even when many goroutines feed in. It returns
// when ctx is done or in is closed.
func Forward(ctx context.Context, in <-chan Notification, out chan<- Notification, seq *Sequencer, wake func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case n, ok := <-in:
			if !ok {
				return
			}
			select {
			case out <- seq.Stamp(n):
			case <-ctx.Done():
				return
			}
			if wake != nil {
				wake()
			}
		}
	}
}

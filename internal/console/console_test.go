// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package console

import (
	"testing"

	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/session"
)

func TestProgramSinkKeepsNotificationsWhenBacklogged(t *testing.T) {
	t.Parallel()

	sink := newProgramSink()
	for i := 0; i < constants.OutboundQueueSize+10; i++ {
		sink.Publish(session.View{})
	}
	sink.Notify(notify.Notification{Title: "Translation Error"})
	sink.Notify(notify.Notification{Title: "Configuration Error"})

	select {
	case <-sink.notes.Ready():
	default:
		t.Fatalf("notifications should be pending")
	}
	got := sink.notes.Drain()
	if len(got) != 2 || got[0].Title != "Translation Error" || got[1].Title != "Configuration Error" {
		t.Fatalf("unexpected notifications %+v", got)
	}
}

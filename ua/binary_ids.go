// Copyright 2018-2020 opcua authors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.

package ua

// Binary encoding ids for ExtensionObject payloads (Part 6, Table 33, as
// assigned to the standard types reused by this module). Like `id`, this
// is a hand-picked subset rather than the full code-generated table,
// sufficient for self-consistent encode/decode round trips.
const (
	binaryIDAnonymousIdentityToken uint32 = 321
	binaryIDUserNameIdentityToken  uint32 = 324
	binaryIDX509IdentityToken      uint32 = 327
	binaryIDIssuedIdentityToken    uint32 = 938

	binaryIDDataChangeNotification uint32 = 811
	binaryIDStatusChangeNotification uint32 = 820
	binaryIDEventNotificationList  uint32 = 916

	binaryIDReadRawModifiedDetails uint32 = 638
	binaryIDHistoryData            uint32 = 661

	binaryIDDataChangeFilter uint32 = 724
	binaryIDEventFilter      uint32 = 727
)
